package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// Queues pushes work items onto the Redis lists consumed by the
// background workers.
type Queues struct {
	rdb *redis.Client
}

// NewQueues creates a new Queues.
func NewQueues(rdb *redis.Client) *Queues {
	return &Queues{rdb: rdb}
}

// EnqueueGradeSession schedules an asynchronous grading pass.
func (q *Queues) EnqueueGradeSession(ctx context.Context, sessionID uuid.UUID) error {
	return q.rdb.RPush(ctx, config.WorkerKey.GradeSessionsQueue, sessionID.String()).Err()
}

// ViolationPayload is the wire shape of a queued violation row.
type ViolationPayload struct {
	SessionID   string `json:"session_id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	RecordedAt  int64  `json:"recorded_at"` // Unix seconds
}

// EnqueueViolation schedules durable persistence of a violation row.
func (q *Queues) EnqueueViolation(ctx context.Context, v *model.Violation) error {
	data, err := json.Marshal(ViolationPayload{
		SessionID:   v.SessionID.String(),
		Type:        string(v.Type),
		Severity:    string(v.Severity),
		Description: v.Description,
		RecordedAt:  v.RecordedAt.Unix(),
	})
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data).Err()
}

// ToModel converts a queued payload back into a violation row.
func (p *ViolationPayload) ToModel() (*model.Violation, error) {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return nil, err
	}
	return &model.Violation{
		SessionID:   sessionID,
		Type:        model.ViolationType(p.Type),
		Severity:    model.ViolationSeverity(p.Severity),
		Description: p.Description,
		RecordedAt:  time.Unix(p.RecordedAt, 0),
	}, nil
}
