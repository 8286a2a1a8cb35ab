// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// Error semantics match the rest of the package: missing rows surface as
// ErrNotFound (gorm.ErrRecordNotFound), other DB errors are propagated raw.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// CreateConversation inserts a new Conversation row owned by userID.
// The id is a randomly generated UUID and CreatedAt is set to UTC.
func CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation by its id, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns all conversations belonging to userID, ordered
// by creation time descending (most recent first). It returns an empty slice
// when the user has none.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountConversations returns the total number of conversations owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns a paginated slice of conversations for
// userID, ordered by creation time descending. Use CountConversations to
// obtain the total for pagination metadata.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
