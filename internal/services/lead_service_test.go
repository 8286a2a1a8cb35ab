package services

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// newServiceDB opens a uniquely named shared in-memory database with the
// full schema migrated.
func newServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:svc_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedServiceUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, &domain.User{Email: email})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestStrongestSignal_Priority(t *testing.T) {
	p := domain.ExtractedProfile{
		CollaborationStatus: []string{"contact_requested", "application_ready", "viewing_requested"},
	}
	if got := strongestSignal(p); got != "application_ready" {
		t.Fatalf("expected application_ready to win, got %q", got)
	}

	if got := strongestSignal(domain.ExtractedProfile{Urgency: "high"}); got != "urgent_inquiry" {
		t.Fatalf("urgent timing alone should open a lead, got %q", got)
	}

	if got := strongestSignal(domain.ExtractedProfile{Budget: "$2000"}); got != "" {
		t.Fatalf("requirements without intent are not lead-worthy, got %q", got)
	}
}

func TestRecordSignals_OpensThenTouches(t *testing.T) {
	db := newServiceDB(t, "lead_upsert")
	ctx := context.Background()
	u := seedServiceUser(t, db, "lead@example.com")
	svc := NewLeadService(db)

	act, err := svc.RecordSignals(ctx, u.ID, domain.ExtractedProfile{CollaborationStatus: []string{"viewing_requested"}})
	if err != nil {
		t.Fatalf("RecordSignals: %v", err)
	}
	if act != ActionLeadOpened {
		t.Fatalf("first signal should open a lead, got %q", act)
	}

	act, err = svc.RecordSignals(ctx, u.ID, domain.ExtractedProfile{CollaborationStatus: []string{"application_ready"}})
	if err != nil {
		t.Fatalf("RecordSignals: %v", err)
	}
	if act != ActionLeadTouched {
		t.Fatalf("repeat signal should touch, not duplicate, got %q", act)
	}

	lead, err := svc.ForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if lead.Signal != "application_ready" {
		t.Fatalf("touch should upgrade the signal, got %q", lead.Signal)
	}
}

func TestRecordSignals_NoSignalNoLead(t *testing.T) {
	db := newServiceDB(t, "lead_nosignal")
	ctx := context.Background()
	u := seedServiceUser(t, db, "quiet@example.com")
	svc := NewLeadService(db)

	act, err := svc.RecordSignals(ctx, u.ID, domain.ExtractedProfile{Budget: "$2000"})
	if err != nil || act != "" {
		t.Fatalf("expected no action, got %q %v", act, err)
	}
	if _, err := svc.ForUser(ctx, u.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestLeadService_AddNote(t *testing.T) {
	db := newServiceDB(t, "lead_note")
	ctx := context.Background()
	u := seedServiceUser(t, db, "notes@example.com")
	svc := NewLeadService(db)

	if _, err := svc.RecordSignals(ctx, u.ID, domain.ExtractedProfile{CollaborationStatus: []string{"contact_requested"}}); err != nil {
		t.Fatalf("RecordSignals: %v", err)
	}
	lead, err := svc.ForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}

	if _, err := svc.AddNote(ctx, lead.ID, "   "); !errors.Is(err, ErrEmptyNote) {
		t.Fatalf("expected ErrEmptyNote, got %v", err)
	}
	got, err := svc.AddNote(ctx, lead.ID, "called, voicemail left")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0] != "called, voicemail left" {
		t.Fatalf("note not recorded: %#v", got.Notes)
	}

	if _, err := svc.AddNote(ctx, "missing", "x"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestLeadService_DueFollowUps(t *testing.T) {
	db := newServiceDB(t, "lead_due")
	ctx := context.Background()
	u := seedServiceUser(t, db, "due@example.com")

	// A nanosecond delay makes the follow-up due by the time we list.
	svc := &LeadService{DB: db, FollowUpDelay: time.Nanosecond}
	if _, err := svc.RecordSignals(ctx, u.ID, domain.ExtractedProfile{CollaborationStatus: []string{"viewing_requested"}}); err != nil {
		t.Fatalf("RecordSignals: %v", err)
	}

	due, err := svc.DueFollowUps(ctx)
	if err != nil {
		t.Fatalf("DueFollowUps: %v", err)
	}
	if len(due) != 1 || due[0].UserID != u.ID {
		t.Fatalf("expected one overdue lead, got %#v", due)
	}
}
