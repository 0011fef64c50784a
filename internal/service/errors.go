package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Sentinel errors shared by the session, grading and proctoring services.
// Handlers map these onto HTTP status codes and response error codes.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionTerminal    = errors.New("session is in a terminal state")
	ErrSessionNotSealed   = errors.New("session has not been sealed")
	ErrClarificationLimit = errors.New("clarification limit reached for this question")
	ErrLastQuestion       = errors.New("already on the last question")
	ErrWrongQuestionIndex = errors.New("submitted index does not match the active question")
	ErrUpstream           = errors.New("upstream AI service failure")
	ErrProctorNotFound    = errors.New("proctoring state not found")
)

// isNoRows reports whether err is the datastore's row-not-found marker.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
