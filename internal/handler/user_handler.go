package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ranklift/ranklift-backend/internal/middleware"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/ranklift/ranklift-backend/internal/response"
	"github.com/ranklift/ranklift-backend/internal/service"
)

// UserHandler serves authenticated per-user views.
type UserHandler struct {
	sessionService *service.SessionService
	users          *repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(sessionService *service.SessionService, users *repository.UserRepository) *UserHandler {
	return &UserHandler{sessionService: sessionService, users: users}
}

// Sessions godoc
// GET /api/v1/user/sessions
// Lists the authenticated user's sessions, newest first.
func (h *UserHandler) Sessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.users.UpsertByExternalID(c.Request.Context(), claims.Subject, claims.Name)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	sessions, err := h.sessionService.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if sessions == nil {
		sessions = []model.Session{}
	}

	response.Success(c, http.StatusOK, gin.H{"user": user, "sessions": sessions})
}
