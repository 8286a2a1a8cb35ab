// Handler wiring shared across endpoint files.
//
// Handlers groups the HTTP endpoints for chat turns, conversations, user
// profiles, and leads. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/propadvisor/go-assistant-backend/internal/utils"
)

// Handlers groups HTTP endpoints for chat turns, conversations, users,
// and leads.
type Handlers struct {
	turnSvc TurnService
	convSvc ConversationService
	userSvc UserService
	leadSvc LeadService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(turnSvc TurnService, convSvc ConversationService, userSvc UserService, leadSvc LeadService) *Handlers {
	return &Handlers{turnSvc: turnSvc, convSvc: convSvc, userSvc: userSvc, leadSvc: leadSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
