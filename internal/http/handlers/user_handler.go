// User profile HTTP handlers.
//
// This file exposes the CRM read endpoints for user profiles:
//   - GET /users/{id}        (fetch a profile accumulated across turns)
//   - GET /users/{id}/lead   (fetch the user's lead, if any)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/services"
)

// UserService defines user profile reads consumed by HTTP handlers.
type UserService interface {
	// Get fetches a user by id.
	Get(ctx context.Context, id string) (*domain.User, error)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user profile
// @Description Returns the profile accumulated for a user across conversation turns.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	user, err := h.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, user)
}

// GetUserLead godoc
// @ID          getUserLead
// @Summary     Get a user's lead
// @Description Returns the lead opened for a user by conversation signals.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Lead
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Lead not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/lead [get]
func (h *Handlers) GetUserLead(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	lead, err := h.leadSvc.ForUser(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrLeadNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "lead not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, lead)
}
