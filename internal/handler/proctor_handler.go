package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/response"
	"github.com/ranklift/ranklift-backend/internal/service"
	"github.com/ranklift/ranklift-backend/internal/validator"
)

// ProctorHandler handles proctoring session management and violation
// intake.
type ProctorHandler struct {
	proctorService *service.ProctorService
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(proctorService *service.ProctorService) *ProctorHandler {
	return &ProctorHandler{proctorService: proctorService}
}

// Initialize godoc
// POST /api/v1/proctoring/initialize
// Activates monitoring for a session.
func (h *ProctorHandler) Initialize(c *gin.Context) {
	var req model.InitializeProctoringRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.proctorService.Initialize(c.Request.Context(), sessionID, req.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"state": state})
}

// RecordViolation godoc
// POST /api/v1/proctoring/violations
// Reports one integrity event. A critical violation nullifies the
// session immediately; the response says whether that happened.
func (h *ProctorHandler) RecordViolation(c *gin.Context) {
	var req model.RecordViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	violationType := model.ViolationType(req.Type)
	severity := model.ViolationSeverity(req.Severity)
	if !model.ValidType(violationType) || !model.ValidSeverity(severity) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	outcome, err := h.proctorService.RecordViolation(c.Request.Context(), &model.Violation{
		SessionID:   sessionID,
		Type:        violationType,
		Severity:    severity,
		Description: req.Description,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// Status godoc
// GET /api/v1/proctoring/sessions/:id/status
func (h *ProctorHandler) Status(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	status, err := h.proctorService.Status(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// SetFlags godoc
// POST /api/v1/proctoring/sessions/:id/flags
// Records camera/fullscreen state changes reported by the capture layer.
func (h *ProctorHandler) SetFlags(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.UpdateProctorFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.proctorService.SetFlags(c.Request.Context(), id, req.CameraEnabled, req.FullscreenActive); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}
