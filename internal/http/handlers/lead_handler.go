// Lead HTTP handlers.
//
// This file exposes the CRM endpoints for lead follow-up:
//   - POST /leads/{id}/notes   (append an agent note to a lead)
//   - GET  /leads/due          (list leads whose follow-up date has passed)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/services"
)

// LeadService defines lead operations consumed by HTTP handlers.
type LeadService interface {
	// ForUser fetches the lead belonging to a user.
	ForUser(ctx context.Context, userID string) (*domain.Lead, error)
	// AddNote appends a free-form note to a lead.
	AddNote(ctx context.Context, id, note string) (*domain.Lead, error)
	// DueFollowUps lists leads whose follow-up date has passed.
	DueFollowUps(ctx context.Context) ([]domain.Lead, error)
}

// AddLeadNoteRequest is the JSON payload for appending a note to a lead.
type AddLeadNoteRequest struct {
	// Note is the free-form text to record (1–2000 chars).
	Note string `json:"note" binding:"required,min=1,max=2000" example:"Called back, wants a Saturday viewing"`
}

// AddLeadNote godoc
// @ID          addLeadNote
// @Summary     Append a note to a lead
// @Description Records a free-form agent note on the lead's timeline.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Lead ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AddLeadNoteRequest  true  "Note payload"
//
// @Success     200  {object} domain.Lead
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/{id}/notes [post]
func (h *Handlers) AddLeadNote(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lead id must be a UUID")
		return
	}

	var req AddLeadNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "note required (1–2000 chars)")
		return
	}

	lead, err := h.leadSvc.AddNote(c.Request.Context(), id, req.Note)
	if err != nil {
		switch err {
		case services.ErrLeadNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
		case services.ErrEmptyNote:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "note required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, lead)
}

// ListDueLeads godoc
// @ID          listDueLeads
// @Summary     List leads due for follow-up
// @Description Returns leads whose follow-up date has passed, oldest first.
// @Tags        Leads
// @Produce     json
//
// @Success     200  {array}  domain.Lead
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /leads/due [get]
func (h *Handlers) ListDueLeads(c *gin.Context) {
	leads, err := h.leadSvc.DueFollowUps(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, leads)
}
