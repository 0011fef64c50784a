package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// Narrow store contracts consumed by the services. The repository package
// provides the PostgreSQL/Redis implementations; tests substitute
// in-memory fakes.

// SessionStore is the persistence contract for the session record.
// Methods returning (bool, error) report whether the guarded write applied;
// false without error means the session state no longer permits it.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	SaveDraft(ctx context.Context, id uuid.UUID, draft string) (bool, error)
	RecordQuestionStart(ctx context.Context, id uuid.UUID, index int, startedAt time.Time) (bool, error)
	CommitDraft(ctx context.Context, id uuid.UUID, index int) (bool, error)
	SetAnswer(ctx context.Context, id uuid.UUID, index int, answer string) (bool, error)
	AppendFollowUps(ctx context.Context, id uuid.UUID, followUps []string) (bool, error)
	Advance(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementClarification(ctx context.Context, id uuid.UUID) (bool, error)
	Seal(ctx context.Context, id uuid.UUID) (bool, error)
	Nullify(ctx context.Context, id uuid.UUID) (bool, error)
	MarkGraded(ctx context.Context, id uuid.UUID, finalScore int) (bool, error)
	ListByOwner(ctx context.Context, ownerID int) ([]model.Session, error)
}

// MessageStore persists clarification chat turns.
type MessageStore interface {
	Create(ctx context.Context, m *model.ChatMessage) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error)
}

// UserStore is the slice of user persistence that scoring needs.
type UserStore interface {
	OverwriteAggregateScore(ctx context.Context, id, score int) error
}

// ViolationStore is the durable violation log. Batched writes go through
// the ViolationQueue; Insert is the synchronous write-through fallback.
type ViolationStore interface {
	Insert(ctx context.Context, v *model.Violation) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error)
}

// ProctorStateStore keeps per-session monitoring state and severity
// counters in a durable side store.
type ProctorStateStore interface {
	Initialize(ctx context.Context, state *model.ProctorState) error
	Get(ctx context.Context, sessionID uuid.UUID) (*model.ProctorState, error)
	SetFlags(ctx context.Context, sessionID uuid.UUID, camera, fullscreen *bool) error
	Deactivate(ctx context.Context, sessionID uuid.UUID) error
	IncrementCount(ctx context.Context, sessionID uuid.UUID, severity model.ViolationSeverity) (model.ViolationCounts, error)
	Counts(ctx context.Context, sessionID uuid.UUID) (model.ViolationCounts, error)
}

// TextGenerator is the uniform generate(prompt, systemInstructions) → text
// capability exposed by the AI fallback chain.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// EventSink receives advisory session events for realtime fan-out.
// Failures are logged by callers, never surfaced.
type EventSink interface {
	Publish(ctx context.Context, sessionID uuid.UUID, eventType string, payload interface{}) error
}

// GradeQueue schedules asynchronous grading of a sealed session.
type GradeQueue interface {
	EnqueueGradeSession(ctx context.Context, sessionID uuid.UUID) error
}

// ViolationQueue schedules durable persistence of a violation row.
type ViolationQueue interface {
	EnqueueViolation(ctx context.Context, v *model.Violation) error
}
