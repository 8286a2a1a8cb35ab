// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert violated a unique constraint
// (duplicate email, duplicate idempotency key, duplicate lead).
var ErrDuplicate = errors.New("duplicate")

// CreateUser inserts a new User row. The id is a generated UUID and
// CreatedAt is set to UTC. A unique-constraint violation on the email
// column is translated to ErrDuplicate so callers can fall back to a
// lookup instead of surfacing a raw driver error.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by primary key, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email (case-insensitive), or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a profile delta (see domain.ExtractedProfile) to the
// stored user. The row is re-read, mutated in memory, and saved so that
// JSON-serialized columns round-trip through the schema serializers.
// Returns the updated user, or ErrNotFound when the row is missing.
func UpdateUser(ctx context.Context, db *gorm.DB, id string, delta map[string]any) (*domain.User, error) {
	var out *domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}
		domain.ApplyProfileDelta(&u, delta)
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		out = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isUniqueViolation detects unique-constraint violations across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
