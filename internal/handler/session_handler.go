package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/middleware"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/ranklift/ranklift-backend/internal/response"
	"github.com/ranklift/ranklift-backend/internal/service"
	"github.com/ranklift/ranklift-backend/internal/validator"
)

// SessionHandler handles the session lifecycle endpoints: creation,
// autosave, timing, advancing, submission and grading.
type SessionHandler struct {
	sessionService *service.SessionService
	gradingService *service.GradingService
	users          *repository.UserRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessionService *service.SessionService,
	gradingService *service.GradingService,
	users *repository.UserRepository,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		gradingService: gradingService,
		users:          users,
	}
}

// Create godoc
// POST /api/v1/sessions
// Starts a new exam session from a task question. Anonymous unless a
// valid token is attached, in which case the session is bound to the
// provisioned user.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var ownerID *int
	if claims := middleware.GetClaims(c); claims != nil {
		user, err := h.users.UpsertByExternalID(c.Request.Context(), claims.Subject, claims.Name)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		ownerID = &user.ID
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), req.TaskQuestion, ownerID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// Get godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Autosave godoc
// POST /api/v1/sessions/:id/autosave
// Overwrites the draft for the current question. Plain overwrite: the
// latest write wins, no merging.
func (h *SessionHandler) Autosave(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.AutosaveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	savedAt, err := h.sessionService.SaveDraft(c.Request.Context(), id, req.Draft)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved_at": savedAt})
}

// CheckTiming godoc
// POST /api/v1/sessions/:id/check-timing
// Returns the authoritative timing snapshot and performs the expiry
// side effects (auto-submit of a non-empty draft, sealing on the last
// question). Clients poll this; the server clock decides.
func (h *SessionHandler) CheckTiming(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	timing, err := h.sessionService.CheckTiming(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"timing": timing})
}

// NextQuestion godoc
// POST /api/v1/sessions/:id/next-question
// Advances to the next question without committing an answer.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.AdvanceQuestion(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
// Commits an answer for the active question. Submitting the last
// question seals the session and schedules grading.
func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.SubmitAnswer(c.Request.Context(), id, req.Index, req.Answer)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Grade godoc
// POST /api/v1/sessions/:id/grade
// Grades a sealed session synchronously and returns the per-question
// breakdown. Idempotent: re-grading a GRADED session overwrites.
func (h *SessionHandler) Grade(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.GradeSession(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// sessionID parses the :id path param, failing the request on bad input.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
