// Package services – LeadService
//
// Leads capture commercial intent signals surfaced during conversations:
// a viewing request, application readiness, or urgent timing. Each user
// has at most one open lead; repeated signals refresh it rather than
// piling up rows. The turn pipeline reports signals here best-effort,
// while the CRM endpoints use the explicit accessors.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// leadSignalPriority orders collaboration signals strongest-first; the
// strongest one present becomes the lead's signal.
var leadSignalPriority = []string{
	"application_ready",
	"negotiation_ready",
	"viewing_requested",
	"contact_requested",
}

// LeadService manages lead aggregates.
type LeadService struct {
	DB *gorm.DB

	// FollowUpDelay sets how far out a lead's follow-up date is pushed
	// on each signal (default 48h).
	FollowUpDelay time.Duration
}

// NewLeadService constructs a LeadService with default follow-up timing.
func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{DB: db, FollowUpDelay: 48 * time.Hour}
}

// RecordSignals upserts the user's lead from a profile extraction. It
// returns the action taken (ActionLeadOpened, ActionLeadTouched) or ""
// when the extraction carried no lead-worthy signal.
func (s *LeadService) RecordSignals(ctx context.Context, userID string, p domain.ExtractedProfile) (string, error) {
	signal := strongestSignal(p)
	if signal == "" {
		return "", nil
	}

	followUp := time.Now().UTC().Add(s.followUpDelay())

	lead, err := repo.GetLeadByUser(ctx, s.DB, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		if _, cerr := repo.CreateLead(ctx, s.DB, userID, signal, followUp); cerr != nil {
			return "", cerr
		}
		return ActionLeadOpened, nil
	}

	if err := repo.TouchLead(ctx, s.DB, lead.ID, signal, followUp); err != nil {
		return "", err
	}
	return ActionLeadTouched, nil
}

// Get fetches a lead by id.
func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := repo.GetLead(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// ForUser fetches the user's lead, if one exists.
func (s *LeadService) ForUser(ctx context.Context, userID string) (*domain.Lead, error) {
	lead, err := repo.GetLeadByUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// AddNote appends a free-form note to a lead.
func (s *LeadService) AddNote(ctx context.Context, id, note string) (*domain.Lead, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrEmptyNote
	}
	lead, err := repo.AppendLeadNote(ctx, s.DB, id, note)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

// DueFollowUps lists leads whose follow-up date has passed.
func (s *LeadService) DueFollowUps(ctx context.Context) ([]domain.Lead, error) {
	return repo.ListLeadsDueForFollowUp(ctx, s.DB, time.Now().UTC())
}

func (s *LeadService) followUpDelay() time.Duration {
	if s.FollowUpDelay > 0 {
		return s.FollowUpDelay
	}
	return 48 * time.Hour
}

// strongestSignal picks the lead signal for an extraction: the highest
// priority collaboration signal, or urgent timing on its own.
func strongestSignal(p domain.ExtractedProfile) string {
	for _, want := range leadSignalPriority {
		for _, have := range p.CollaborationStatus {
			if have == want {
				return want
			}
		}
	}
	if p.Urgency == "high" {
		return "urgent_inquiry"
	}
	return ""
}
