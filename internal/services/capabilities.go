// Package services – capability and store contracts.
//
// The orchestration pipeline consumes its collaborators exclusively through
// the interfaces in this file. Concrete implementations (GORM store, search
// index, heuristic extractor, OpenAI client) are injected at construction so
// tests can substitute deterministic fakes and the pipeline's control flow
// stays capability-agnostic.
package services

import (
	"context"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/search"
)

// Store is the persistence contract of the pipeline. Implementations must
// translate driver errors into ErrStorageUnavailable (wrapped) and missing
// rows into repo.ErrNotFound semantics via the (found, err) conventions
// documented per method.
type Store interface {
	// FindUserByID returns (nil, nil) when no user has the id.
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	// FindUserByEmail returns (nil, nil) when no user has the email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateUser persists a new user; the store assigns the id.
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	// UpdateUser applies a profile delta and returns the updated row.
	UpdateUser(ctx context.Context, id string, delta map[string]any) (*domain.User, error)

	// FindConversation returns (nil, nil) when the id does not resolve.
	FindConversation(ctx context.Context, id string) (*domain.Conversation, error)
	// CreateConversation starts a new conversation owned by userID.
	CreateConversation(ctx context.Context, userID string) (*domain.Conversation, error)

	// AppendMessage appends one utterance; ordering follows insertion.
	AppendMessage(ctx context.Context, conversationID, role, content string) (*domain.Message, error)
	// ListMessages returns the turn history oldest-first. A positive limit
	// keeps the latest rows; limit <= 0 means all.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

// RetrievalCapability searches external knowledge for ranked items.
// It may fail or return an empty slice; the aggregator absorbs both.
type RetrievalCapability interface {
	Search(ctx context.Context, text string, limit int) ([]search.Result, error)
}

// ProfileExtractionCapability derives a partial profile from one message.
// It may fail or return an all-empty profile; the aggregator absorbs both.
type ProfileExtractionCapability interface {
	Extract(ctx context.Context, text string) (domain.ExtractedProfile, error)
}

// GenerativeTextCapability produces free-form reply text from a prompt.
// The synthesizer only consults it as a last resort; errors and empty
// output both fall through to the template fallback.
type GenerativeTextCapability interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IndexRetriever adapts a search.Index to the RetrievalCapability contract.
type IndexRetriever struct {
	Index search.Index
}

// Search delegates to the underlying index. A nil index yields no results.
func (r IndexRetriever) Search(ctx context.Context, text string, limit int) ([]search.Result, error) {
	if r.Index == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Index.TopK(text, limit), nil
}

// templateOnly is the default generative capability: it produces nothing,
// which routes every fallback through the deterministic templates.
type templateOnly struct{}

// Generate always yields empty text.
func (templateOnly) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}
