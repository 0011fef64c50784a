package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/ranklift/ranklift-backend/internal/response"
)

// QuestionHandler serves the seed question bank.
type QuestionHandler struct {
	questions *repository.QuestionRepository
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *repository.QuestionRepository) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// Random godoc
// GET /api/v1/questions/random
// Returns a random seed question for starting a session.
func (h *QuestionHandler) Random(c *gin.Context) {
	question, err := h.questions.Random(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}
