// Package services – GORM-backed Store.
//
// GormStore adapts the free functions in internal/repo to the Store
// contract consumed by the pipeline. It owns the error translation:
// missing rows become (nil, nil), duplicate-key races pass through
// unwrapped so the identity resolver can re-fetch, and everything else
// is wrapped in ErrStorageUnavailable.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// GormStore implements Store on top of a GORM handle.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps db as a pipeline Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// FindUserByID returns (nil, nil) when no user has the id.
func (s *GormStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return u, nil
}

// FindUserByEmail returns (nil, nil) when no user has the email.
func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return u, nil
}

// CreateUser persists a new user. Duplicate-key violations pass through
// as repo.ErrDuplicate so callers can resolve the race by re-fetching.
func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	created, err := repo.CreateUser(ctx, s.DB, u)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}
		return nil, storeErr(err)
	}
	return created, nil
}

// UpdateUser applies a profile delta and returns the updated row.
func (s *GormStore) UpdateUser(ctx context.Context, id string, delta map[string]any) (*domain.User, error) {
	u, err := repo.UpdateUser(ctx, s.DB, id, delta)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// FindConversation returns (nil, nil) when the id does not resolve.
func (s *GormStore) FindConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	c, err := repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// CreateConversation starts a new conversation owned by userID.
func (s *GormStore) CreateConversation(ctx context.Context, userID string) (*domain.Conversation, error) {
	c, err := repo.CreateConversation(ctx, s.DB, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return c, nil
}

// AppendMessage appends one utterance to the conversation history.
func (s *GormStore) AppendMessage(ctx context.Context, conversationID, role, content string) (*domain.Message, error) {
	m, err := repo.CreateMessage(s.DB.WithContext(ctx), conversationID, role, content)
	if err != nil {
		return nil, storeErr(err)
	}
	return m, nil
}

// ListMessages returns the history oldest-first. A positive limit keeps
// the latest rows; limit <= 0 means all.
func (s *GormStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	ms, err := repo.ListMessages(s.DB.WithContext(ctx), conversationID, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return ms, nil
}
