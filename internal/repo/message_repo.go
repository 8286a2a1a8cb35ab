// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// CreateMessage inserts a new message row.
func CreateMessage(db *gorm.DB, conversationID, role, content string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessages returns messages ordered deterministically (CreatedAt ASC,
// ID ASC). A positive limit keeps the latest rows, so a bounded read still
// ends at the newest turn.
func ListMessages(db *gorm.DB, conversationID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.Where("conversation_id = ?", conversationID)
	if limit > 0 {
		q = q.Order("created_at DESC, id DESC").Limit(limit)
	} else {
		q = q.Order("created_at ASC, id ASC")
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error (as tests expect).
func CountMessages(db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListMessagesPage(db *gorm.DB, conversationID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
