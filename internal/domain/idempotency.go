// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed turn,
// keyed by (user_id, conversation_id, key). It enables safe retries of the
// chat endpoint by returning the originally produced assistant message
// without re-executing the pipeline's side effects.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_conv_key,priority:1"`
	ConversationID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_conv_key,priority:2"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_conv_key,priority:3"`
	MessageID      string    `gorm:"type:TEXT NOT NULL"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
