// Package services – ConversationService
//
// Read-side operations over conversations and their histories, used by
// the HTTP surface. Writes happen exclusively inside the turn pipeline.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// ConversationService exposes paginated conversation reads.
type ConversationService struct {
	DB *gorm.DB
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db}
}

// List returns all conversations for a user, newest activity first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, s.DB, userID)
}

// ListPage returns one page of a user's conversations plus the total.
// Invalid page parameters fall back to page 1 of 20.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}

	items, err := repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// HistoryPage returns one page of a conversation's messages oldest-first.
func (s *ConversationService) HistoryPage(ctx context.Context, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), conversationID, offset, pageSize)
	return items, total, err
}
