// Package services – UserService
//
// Read-side access to user profiles for the CRM endpoints. Profile
// writes flow through the turn pipeline's merge, never through here.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// UserService exposes user profile reads.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
