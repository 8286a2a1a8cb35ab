// Package services – turn outcome types.
package services

import (
	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/search"
)

// Recorded side-effect actions.
const (
	ActionUserCreated    = "user_created"
	ActionUserFound      = "user_found"
	ActionProfileUpdated = "profile_updated"
	ActionLeadOpened     = "lead_opened"
	ActionLeadTouched    = "lead_touched"
)

// Synthesis branches recorded in outcome metadata.
const (
	BranchGreeting      = "greeting"
	BranchClarify       = "clarify"
	BranchProfileSignal = "profile_signal"
	BranchRetrieval     = "retrieval"
	BranchGenerative    = "generative"
	BranchFallback      = "fallback"
	BranchError         = "error"
)

// Action is one recorded side effect of a turn (user creation, profile
// update, lead activity). Actions are informational: they mirror what was
// persisted but are not themselves durable.
type Action struct {
	Action string `json:"action"`
	UserID string `json:"user_id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// TurnOutcome is the single structured result of one pipeline invocation.
//
// Invariants:
//   - Reply is always non-empty, for failed turns included.
//   - A successful outcome carries the resolved user and conversation ids.
//   - A failed outcome carries the fallback reply and nothing else.
type TurnOutcome struct {
	Reply          string                  `json:"response"`
	UserID         string                  `json:"user_id,omitempty"`
	ConversationID string                  `json:"conversation_id,omitempty"`
	Profile        domain.ExtractedProfile `json:"extracted_info"`
	Retrieved      []search.Result         `json:"sources,omitempty"`
	Properties     []search.Result         `json:"properties,omitempty"`
	Actions        []Action                `json:"actions,omitempty"`
	Context        map[string]string       `json:"context,omitempty"`
	History        []domain.Message        `json:"history,omitempty"`
	Metadata       map[string]string       `json:"metadata,omitempty"`
}
