// Package services – TurnService
//
// TurnService is the orchestration core: one call to ProcessTurn carries
// a caller's message through identity resolution, conversation setup,
// history recording, context aggregation, response synthesis, and reply
// recording. The pipeline is a strict stage sequence; once input
// validation has passed, no stage failure escapes as an error. Anything
// that goes wrong past that point collapses into a fallback outcome with
// a generic apology, because a broken turn must still answer.
//
// Observability: ProcessTurn opens an OpenTelemetry span covering the
// whole pipeline and annotates it with the resolved identifiers and the
// synthesis branch; stage degradations are logged through zerolog.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// Pipeline stage names, recorded in fallback metadata so a degraded
// reply still says where the turn died.
const (
	stageResolveIdentity    = "resolve_identity"
	stageEnsureConversation = "ensure_conversation"
	stageRecordUser         = "record_user_message"
	stageAggregate          = "aggregate_context"
	stageSynthesize         = "synthesize_response"
	stageRecordAssistant    = "record_assistant_message"
	stageDone               = "done"
)

// fallbackReply is the reply of every failed turn.
const fallbackReply = "I apologize, but I encountered an error processing your request. Please try again."

// TurnService runs the conversation pipeline. Construct it with
// NewTurnService; the zero value is not usable.
type TurnService struct {
	Store     Store
	Retrieval RetrievalCapability
	Extractor ProfileExtractionCapability
	Generator GenerativeTextCapability

	// Leads, when set, receives collaboration and urgency signals
	// captured during aggregation.
	Leads *LeadService

	// TopK bounds retrieval results per turn (default 5).
	TopK int
	// CapabilityTimeout bounds each concurrent aggregation leg and the
	// generative call (default 3s).
	CapabilityTimeout time.Duration
	// HistoryLimit bounds how much history feeds synthesis (default 20).
	HistoryLimit int
	// MaxMessageRunes rejects oversized messages before the pipeline
	// starts (default 4000).
	MaxMessageRunes int
	// MinSubstantiveRunes is the fragment threshold for the clarify
	// tier (default 5).
	MinSubstantiveRunes int

	locks *keyedMutex
}

// NewTurnService wires the pipeline. generator may be nil; synthesis
// then relies on templates alone.
func NewTurnService(store Store, retrieval RetrievalCapability, extractor ProfileExtractionCapability, generator GenerativeTextCapability) *TurnService {
	if generator == nil {
		generator = templateOnly{}
	}
	return &TurnService{
		Store:     store,
		Retrieval: retrieval,
		Extractor: extractor,
		Generator: generator,
		locks:     newKeyedMutex(),
	}
}

// ProcessTurn executes one full turn for the caller identified by token.
// conversationID may be empty; a fresh conversation is then started.
//
// The returned error is non-nil only for input validation (ErrEmptyMessage,
// ErrTooLong). Past validation the method always returns an outcome with a
// non-empty reply; pipeline failures yield the fallback outcome.
//
// Turns sharing an identity token are serialized for the pipeline's full
// duration, so history order and profile merges stay consistent under
// concurrent calls for the same caller.
func (s *TurnService) ProcessTurn(ctx context.Context, token, conversationID, message string) (TurnOutcome, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnOutcome{}, ErrEmptyMessage
	}
	if max := s.maxMessageRunes(); utf8.RuneCountInString(message) > max {
		return TurnOutcome{}, ErrTooLong
	}

	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "ProcessTurn",
		trace.WithAttributes(attribute.Int("message.runes", utf8.RuneCountInString(message))),
	)
	defer span.End()

	unlock := s.locks.Lock(strings.ToLower(strings.TrimSpace(token)))
	defer unlock()

	// RESOLVE_IDENTITY
	ident, err := resolveIdentity(ctx, s.Store, token, message)
	if err != nil {
		return s.fallback(stageResolveIdentity, err), nil
	}
	switch ident.Variant {
	case IdentityFound, IdentityProvisioned:
	default:
		log.Warn().Str("variant", ident.Variant).Msg("identity unresolved")
		return s.fallback(stageResolveIdentity, ErrIdentityUnresolved), nil
	}
	user := ident.User
	span.SetAttributes(attribute.String("user.id", user.ID))

	actions := make([]Action, 0, 4)
	if ident.Variant == IdentityProvisioned {
		actions = append(actions, Action{Action: ActionUserCreated, UserID: user.ID})
	} else {
		actions = append(actions, Action{Action: ActionUserFound, UserID: user.ID})
	}

	// ENSURE_CONVERSATION
	conv, err := s.ensureConversation(ctx, user.ID, conversationID)
	if err != nil {
		return s.fallback(stageEnsureConversation, err), nil
	}
	span.SetAttributes(attribute.String("conversation.id", conv.ID))

	// RECORD_USER_MESSAGE
	userMsg, err := s.Store.AppendMessage(ctx, conv.ID, domain.RoleUser, message)
	if err != nil {
		return s.fallback(stageRecordUser, err), nil
	}

	// AGGREGATE_CONTEXT
	tc := s.aggregateContext(ctx, user, conv.ID, message)
	user, merged := s.mergeProfile(ctx, user, tc.Delta)
	if merged {
		actions = append(actions, Action{Action: ActionProfileUpdated, UserID: user.ID})
	}
	if s.Leads != nil {
		if act, lerr := s.Leads.RecordSignals(ctx, user.ID, tc.Extracted); lerr != nil {
			log.Warn().Err(lerr).Str("user_id", user.ID).Msg("lead signal degraded")
		} else if act != "" {
			actions = append(actions, Action{Action: act, UserID: user.ID})
		}
	}

	// SYNTHESIZE_RESPONSE
	reply, branch := s.synthesize(ctx, user, message, tc)
	span.SetAttributes(attribute.String("synthesis.branch", branch))

	// RECORD_ASSISTANT_MESSAGE
	assistantMsg, err := s.Store.AppendMessage(ctx, conv.ID, domain.RoleAssistant, reply)
	if err != nil {
		return s.fallback(stageRecordAssistant, err), nil
	}

	properties := tc.Results[:0:0]
	for _, r := range tc.Results {
		if r.IsProperty() {
			properties = append(properties, r)
		}
	}

	history := append(tc.History, *userMsg, *assistantMsg)

	return TurnOutcome{
		Reply:          reply,
		UserID:         user.ID,
		ConversationID: conv.ID,
		Profile:        tc.Extracted,
		Retrieved:      tc.Results,
		Properties:     properties,
		Actions:        actions,
		Context:        map[string]string{"identity": ident.Variant},
		History:        history,
		Metadata:       map[string]string{"stage": stageDone, "branch": branch},
	}, nil
}

// ensureConversation resolves the requested conversation or starts a new
// one. A stale or foreign id is not an error; the caller simply gets a
// fresh conversation, which the outcome reports.
func (s *TurnService) ensureConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.Store.FindConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if conv != nil && conv.UserID == userID {
			return conv, nil
		}
		log.Debug().Str("conversation_id", conversationID).Msg("requested conversation unusable, starting fresh")
	}
	return s.Store.CreateConversation(ctx, userID)
}

// fallback builds the degraded outcome for a failed stage.
func (s *TurnService) fallback(stage string, err error) TurnOutcome {
	log.Error().Err(err).Str("stage", stage).Msg("turn degraded to fallback")
	return TurnOutcome{
		Reply:    fallbackReply,
		Metadata: map[string]string{"stage": stage, "branch": BranchError},
	}
}

func (s *TurnService) maxMessageRunes() int {
	if s.MaxMessageRunes > 0 {
		return s.MaxMessageRunes
	}
	return 4000
}
