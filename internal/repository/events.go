package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// SessionEvent is a fan-out message delivered to WebSocket subscribers of
// a session's event channel.
type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
	At        time.Time   `json:"at"`
}

// Event types published by the session, grading and proctoring services.
const (
	EventDraftSaved       = "draft_saved"
	EventAutoSubmitted    = "auto_submitted"
	EventQuestionAdvanced = "question_advanced"
	EventSealed           = "sealed"
	EventGraded           = "graded"
	EventViolation        = "violation"
	EventNullified        = "nullified"
)

// EventPublisher publishes session events onto the per-session Redis
// PubSub channel. Publishing is advisory: failures are returned for
// logging but never block the originating mutation.
type EventPublisher struct {
	rdb *redis.Client
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// Publish sends an event to the session's channel.
func (p *EventPublisher) Publish(ctx context.Context, sessionID uuid.UUID, eventType string, payload interface{}) error {
	event := SessionEvent{
		Type:      eventType,
		SessionID: sessionID.String(),
		Payload:   payload,
		At:        time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.SessionEventChannel(sessionID.String()), data).Err()
}
