package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one turn of a clarification exchange. User turns and AI
// turns are stored as separate rows, ordered by CreatedAt.
type ChatMessage struct {
	ID        int       `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

// ClarificationRequest is the payload for asking the AI assistant about the
// current question.
type ClarificationRequest struct {
	Question string `json:"question" binding:"required,min=1"`
}
