package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ranklift/ranklift-backend/internal/response"
	"github.com/ranklift/ranklift-backend/internal/service"
)

// failFromService maps service sentinel errors onto HTTP statuses and
// response error codes. Unknown errors become 500 INTERNAL_ERROR.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSessionTerminal):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminal)
	case errors.Is(err, service.ErrSessionNotSealed):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotSealed)
	case errors.Is(err, service.ErrClarificationLimit):
		response.Fail(c, http.StatusTooManyRequests, response.ErrLimitExceeded)
	case errors.Is(err, service.ErrLastQuestion):
		response.Fail(c, http.StatusConflict, response.ErrLastQuestion)
	case errors.Is(err, service.ErrWrongQuestionIndex):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrUpstream):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamFailure)
	case errors.Is(err, service.ErrProctorNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
