// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - GET /conversations                  (list, paginated, ETag support)
//   - GET /conversations/{id}/messages    (history, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including
// conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
	"github.com/propadvisor/go-assistant-backend/internal/services"
)

// ConversationService defines conversation reads consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// ListPage returns a page of a user's conversations and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// HistoryPage returns a page of a conversation's messages oldest-first.
	HistoryPage(ctx context.Context, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
}

// ListConversationsResponse wraps a page of conversations and pagination info.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// convDB digs the GORM handle out of the concrete service for ETag stats.
func convDB(convSvc ConversationService) *gorm.DB {
	if svc, ok := convSvc.(*services.ConversationService); ok {
		return svc.DB
	}
	return nil
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID"                      example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListConversationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := convDB(h.convSvc); db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.convSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	tp := totalPages(total, pageSize)
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: tp,
			HasNext:    page < tp,
		},
	})
}

// ListConversationMessages godoc
// @ID          listConversationMessages
// @Summary     List messages in a conversation
// @Description Returns a paginated list of messages for the given conversation, oldest first.
// @Tags        Conversations
// @Produce     json
//
// @Param       id         path   string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       page       query  int     false "Page number"             minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"          minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListConversationMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")

	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	// ETag pre-check (best effort).
	if db := convDB(h.convSvc); db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, db, conversationID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, conversationID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.convSvc.HistoryPage(ctx, conversationID, page, pageSize)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	tp := totalPages(total, pageSize)
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: tp,
			HasNext:    page < tp,
		},
	})
}
