// Package domain defines the persistence models for users, conversations,
// messages, and leads. These types are mapped with GORM and form the core
// data layer of the assistant backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is the canonical record for a person the assistant talks to. Users are
// created lazily on first contact and enriched over time as profile signals
// are extracted from their messages. Profile fields are additive: an update
// only ever sets or overwrites a field, it never clears one.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned by the store.
//   - Email: unique contact address; the second identity-resolution tier
//     keys on it, so it carries a unique index.
//   - Name / Company / Phone: optional contact details.
//   - Budget / PropertyType / LocationPreference / Timeline / Urgency:
//     free-form preference attributes.
//   - LeaseTerms / CollaborationStatus: accumulated intent signals, stored
//     as JSON arrays.
type User struct {
	ID                  string         `json:"id"    gorm:"type:char(36);primaryKey"`
	Email               string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Name                string         `json:"name,omitempty"    gorm:"type:varchar(255)"`
	Company             string         `json:"company,omitempty" gorm:"type:varchar(255)"`
	Phone               string         `json:"phone,omitempty"   gorm:"type:varchar(64)"`
	Budget              string         `json:"budget,omitempty"  gorm:"type:varchar(64)"`
	PropertyType        string         `json:"property_type,omitempty"       gorm:"type:varchar(64)"`
	LocationPreference  string         `json:"location_preference,omitempty" gorm:"type:varchar(255)"`
	Timeline            string         `json:"timeline,omitempty"            gorm:"type:varchar(64)"`
	Urgency             string         `json:"urgency,omitempty"             gorm:"type:varchar(16)"`
	LeaseTerms          []string       `json:"lease_terms,omitempty"          gorm:"serializer:json"`
	CollaborationStatus []string       `json:"collaboration_status,omitempty" gorm:"serializer:json"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation groups the messages of one dialogue. A conversation belongs to
// exactly one user; a user may own many conversations. Conversations are
// created lazily when a turn arrives without a resolvable conversation id.
type Conversation struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id" gorm:"type:char(36);not null;index:idx_user_convs"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation, authored either by
// the "user" or the "assistant". Messages are append-only and ordered by
// creation time; retrieval must preserve insertion order.
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index:idx_conv_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Conversation is the parent dialogue. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Lead records actionable intent for a user (a viewing request, an
// application in flight, an urgent search). At most one open lead exists per
// user; repeated signals update the existing row instead of creating a new
// one. Notes accumulate as a JSON array of strings.
type Lead struct {
	ID           string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID       string         `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:ux_leads_user"`
	Status       string         `json:"status"  gorm:"type:varchar(32);not null;default:'new'"`
	Signal       string         `json:"signal,omitempty" gorm:"type:varchar(64)"`
	Notes        []string       `json:"notes,omitempty"  gorm:"serializer:json"`
	LastContact  time.Time      `json:"last_contact"`
	FollowUpDate time.Time      `json:"follow_up_date"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// User is the lead's owner. Leads are cascade-deleted with the user.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }
