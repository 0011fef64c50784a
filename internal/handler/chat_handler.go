package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/response"
	"github.com/ranklift/ranklift-backend/internal/service"
	"github.com/ranklift/ranklift-backend/internal/validator"
)

// ChatHandler handles the clarification chat endpoints.
type ChatHandler struct {
	gradingService *service.GradingService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(gradingService *service.GradingService) *ChatHandler {
	return &ChatHandler{gradingService: gradingService}
}

// Ask godoc
// POST /api/v1/chat/:session_id
// Runs one clarification exchange about the current question. Capped at
// 3 per question; each used clarification costs score.
func (h *ChatHandler) Ask(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ClarificationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.gradingService.AskClarification(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// History godoc
// GET /api/v1/chat/:session_id
// Returns the full clarification transcript in chronological order.
func (h *ChatHandler) History(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	messages, err := h.gradingService.ChatHistory(c.Request.Context(), sessionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	if messages == nil {
		messages = []model.ChatMessage{}
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}
