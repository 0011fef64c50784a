package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ranklift/ranklift-backend/internal/ai"
	"github.com/ranklift/ranklift-backend/internal/response"
)

// Audio uploads above this size are rejected before hitting the
// transcription upstreams.
const maxAudioSize = 25 << 20 // 25 MB

// TranscribeHandler converts uploaded voice answers to text.
type TranscribeHandler struct {
	transcriber *ai.Transcriber
}

// NewTranscribeHandler creates a new TranscribeHandler.
func NewTranscribeHandler(transcriber *ai.Transcriber) *TranscribeHandler {
	return &TranscribeHandler{transcriber: transcriber}
}

// Transcribe godoc
// POST /api/v1/transcribe
// Accepts a multipart "audio" file and returns the transcript.
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	if fileHeader.Size > maxAudioSize {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrInvalidPayload)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	text, err := h.transcriber.Transcribe(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamFailure)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"text": text})
}
