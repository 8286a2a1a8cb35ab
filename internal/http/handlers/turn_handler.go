// Chat turn HTTP handler.
//
// This file exposes the conversational entry point:
//   - POST /chat   (run one full turn through the orchestration pipeline)
//
// The handler is transport-thin: it validates and normalizes the payload,
// resolves the caller token, delegates to the TurnService, and translates
// the outcome into an HTTP response.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, conversation, key), the handler returns the
// recorded assistant reply and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
	"github.com/propadvisor/go-assistant-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TurnService runs one conversation turn end to end.
//
// Implementations must be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TurnService interface {
	// ProcessTurn resolves the caller, records the message, and returns
	// the synthesized outcome. It errors only on input validation.
	ProcessTurn(ctx context.Context, token, conversationID, message string) (services.TurnOutcome, error)
}

//
// DTOs
//

// ChatRequest is the JSON payload for one conversation turn.
type ChatRequest struct {
	// UserID identifies the caller: a stored user id or an email address.
	// Falls back to the X-User-ID header when omitted.
	UserID string `json:"user_id" example:"sarah@example.com"`
	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Message is the user's utterance. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"I'm looking for a 2 bedroom in Williamsburg under $3500"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeMessage normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeMessage(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxMessageRunes inspects the concrete TurnService for a configured
// message-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxMessageRunes(turnSvc TurnService) int {
	const fallback = 4000
	if ts, ok := turnSvc.(*services.TurnService); ok {
		if ts.MaxMessageRunes > 0 {
			return ts.MaxMessageRunes
		}
	}
	return fallback
}

// turnDB digs the GORM handle out of the concrete service wiring so the
// handler can serve idempotent replays. Best effort; nil when the service
// is a test fake.
func turnDB(turnSvc TurnService) *gorm.DB {
	ts, ok := turnSvc.(*services.TurnService)
	if !ok {
		return nil
	}
	gs, ok := ts.Store.(*services.GormStore)
	if !ok {
		return nil
	}
	return gs.DB
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Send a message and get an assistant reply
// @Description Runs one conversation turn: resolves the caller, records the message,
// @Description aggregates context, and returns the synthesized reply with any
// @Description captured profile details and matching listings.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Caller id or email (used when user_id is absent)"  example(sarah@example.com)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Turn payload"
//
// @Success     200  {object}  services.TurnOutcome      "Turn outcome"
// @Failure     400  {object}  handlers.ErrorResponse    "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	message := sanitizeMessage(req.Message)
	maxRunes := discoverMaxMessageRunes(h.turnSvc)
	if maxRunes > 0 && utf8.RuneCountInString(message) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	token := strings.TrimSpace(req.UserID)
	if token == "" {
		token = userID(c)
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if db := turnDB(h.turnSvc); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, token, req.ConversationID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetMessage(db, rec.MessageID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, services.TurnOutcome{
						Reply:          prev.Content,
						ConversationID: prev.ConversationID,
						Metadata:       map[string]string{"replayed": "true"},
					})
					return
				}
			}
		}
	}

	outcome, err := h.turnSvc.ProcessTurn(ctx, token, strings.TrimSpace(req.ConversationID), message)
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case services.ErrTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTurnFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort, keyed by the recorded reply.
	if idemKey != "" && outcome.ConversationID != "" && len(outcome.History) > 0 {
		if db := turnDB(h.turnSvc); db != nil {
			last := outcome.History[len(outcome.History)-1]
			if last.Role == domain.RoleAssistant {
				ttl := 24 * time.Hour
				_, _ = repo.CreateIdempotency(ctx, db, token, req.ConversationID, idemKey, last.ID, http.StatusOK, ttl)
			}
		}
	}

	ok(c, http.StatusOK, outcome)
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// middleware has already validated/stashed it. The fallback behavior reads
// the "Idempotency-Key" header directly when no dedicated middleware exists.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}
