// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules (which signals open a lead, note
// formatting) to the services package.
//
// Error semantics:
//   - A second open lead for the same user relies on the database unique
//     constraint and is returned as ErrDuplicate; the service layer upserts
//     instead of surfacing it.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// CreateLead inserts a lead row for the given user. The (user_id) column is
// unique, so a second insert for the same user returns ErrDuplicate.
func CreateLead(ctx context.Context, db *gorm.DB, userID, signal string, followUp time.Time) (*domain.Lead, error) {
	now := time.Now().UTC()
	l := &domain.Lead{
		ID:           uuid.NewString(),
		UserID:       userID,
		Status:       "new",
		Signal:       signal,
		LastContact:  now,
		FollowUpDate: followUp,
		CreatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return l, nil
}

// GetLead fetches a lead by its id, or ErrNotFound.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeadByUser fetches the lead owned by userID, or ErrNotFound.
func GetLeadByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Lead, error) {
	var l domain.Lead
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// TouchLead updates a lead's signal and contact timestamps.
func TouchLead(ctx context.Context, db *gorm.DB, id, signal string, followUp time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"signal":         signal,
			"last_contact":   time.Now().UTC(),
			"follow_up_date": followUp,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendLeadNote appends a note to the lead's JSON note list. The row is
// re-read and saved inside a transaction so the serializer round-trips.
func AppendLeadNote(ctx context.Context, db *gorm.DB, id, note string) (*domain.Lead, error) {
	var out *domain.Lead
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l domain.Lead
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			return err
		}
		l.Notes = append(l.Notes, note)
		l.LastContact = time.Now().UTC()
		if err := tx.Save(&l).Error; err != nil {
			return err
		}
		out = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListLeadsDueForFollowUp returns open leads whose follow-up date has passed.
func ListLeadsDueForFollowUp(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Where("follow_up_date <= ? AND status <> ?", now, "closed").
		Order("follow_up_date asc").
		Find(&out).Error
	return out, err
}
