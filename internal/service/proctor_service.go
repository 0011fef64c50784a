package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ProctorService records integrity violations and enforces the one-strike
// policy: any critical violation forces the session into the terminal
// nullified state. Monitoring state and severity counters live in a
// durable side store (Redis), violation rows flow to PostgreSQL through
// the violation worker, and the session record itself carries the
// permanent nullification.
type ProctorService struct {
	sessions   SessionStore
	state      ProctorStateStore
	violations ViolationStore
	queue      ViolationQueue
	events     EventSink
	now        func() time.Time
	log        zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(
	sessions SessionStore,
	state ProctorStateStore,
	violations ViolationStore,
	queue ViolationQueue,
	events EventSink,
	log zerolog.Logger,
) *ProctorService {
	return &ProctorService{
		sessions:   sessions,
		state:      state,
		violations: violations,
		queue:      queue,
		events:     events,
		now:        time.Now,
		log:        log.With().Str("component", "proctor_service").Logger(),
	}
}

// Initialize starts monitoring for a session. Idempotent: re-initializing
// resets the flags but the violation counters and log are untouched.
func (p *ProctorService) Initialize(ctx context.Context, sessionID uuid.UUID, userID int) (*model.ProctorState, error) {
	session, err := p.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}

	state := &model.ProctorState{
		SessionID: sessionID,
		UserID:    userID,
		StartedAt: p.now(),
		Active:    true,
	}
	if err := p.state.Initialize(ctx, state); err != nil {
		return nil, fmt.Errorf("initialize proctor state: %w", err)
	}

	p.log.Info().Str("session_id", sessionID.String()).Msg("Proctoring initialized")
	return state, nil
}

// ViolationOutcome is the synchronous result of recording a violation.
type ViolationOutcome struct {
	Nullified bool                  `json:"nullified"`
	Counts    model.ViolationCounts `json:"violation_counts"`
}

// RecordViolation appends an integrity event. Warnings are logged only;
// a critical violation deactivates monitoring and nullifies the session.
// Nullification pre-empts every other transition: the guarded session
// update wins any race against in-flight autosave, timing or advance
// calls, and is a no-op if the session already left ACTIVE.
func (p *ProctorService) RecordViolation(ctx context.Context, v *model.Violation) (*ViolationOutcome, error) {
	if _, err := p.getSession(ctx, v.SessionID); err != nil {
		return nil, err
	}

	if v.RecordedAt.IsZero() {
		v.RecordedAt = p.now()
	}

	// Durable row persistence is batched through the worker; the counter
	// moves synchronously so the response reflects this violation.
	if err := p.queue.EnqueueViolation(ctx, v); err != nil {
		p.log.Error().Err(err).Str("session_id", v.SessionID.String()).Msg("Violation enqueue failed, writing through")
		// Queue loss must not drop a violation behind a one-strike policy.
		if err := p.violations.Insert(ctx, v); err != nil {
			return nil, fmt.Errorf("persist violation: %w", err)
		}
	}

	counts, err := p.state.IncrementCount(ctx, v.SessionID, v.Severity)
	if err != nil {
		return nil, fmt.Errorf("increment violation count: %w", err)
	}

	outcome := &ViolationOutcome{Counts: counts}

	if v.Severity == model.SeverityCritical {
		if err := p.state.Deactivate(ctx, v.SessionID); err != nil {
			p.log.Error().Err(err).Msg("Proctor state deactivation failed")
		}

		nullified, err := p.sessions.Nullify(ctx, v.SessionID)
		if err != nil {
			return nil, fmt.Errorf("nullify session: %w", err)
		}
		outcome.Nullified = nullified

		if nullified {
			p.publish(ctx, v.SessionID, repository.EventNullified, map[string]string{"type": string(v.Type)})
			p.log.Warn().
				Str("session_id", v.SessionID.String()).
				Str("type", string(v.Type)).
				Msg("Session nullified by critical violation")
		}
	} else {
		p.publish(ctx, v.SessionID, repository.EventViolation, map[string]string{
			"type":     string(v.Type),
			"severity": string(v.Severity),
		})
	}

	return outcome, nil
}

// ProctorStatus is the full monitoring picture for a session.
type ProctorStatus struct {
	State      *model.ProctorState  `json:"state"`
	Counts     model.ViolationCounts `json:"violation_counts"`
	Violations []model.Violation    `json:"violations"`
}

// Status returns monitoring state, severity counts and the durable
// violation log for a session.
func (p *ProctorService) Status(ctx context.Context, sessionID uuid.UUID) (*ProctorStatus, error) {
	state, err := p.state.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrProctorStateNotFound) {
			return nil, ErrProctorNotFound
		}
		return nil, fmt.Errorf("get proctor state: %w", err)
	}

	counts, err := p.state.Counts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get violation counts: %w", err)
	}

	log, err := p.violations.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}

	return &ProctorStatus{State: state, Counts: counts, Violations: log}, nil
}

// SetFlags updates the camera/fullscreen monitoring flags.
func (p *ProctorService) SetFlags(ctx context.Context, sessionID uuid.UUID, camera, fullscreen *bool) error {
	if _, err := p.state.Get(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrProctorStateNotFound) {
			return ErrProctorNotFound
		}
		return fmt.Errorf("get proctor state: %w", err)
	}
	return p.state.SetFlags(ctx, sessionID, camera, fullscreen)
}

func (p *ProctorService) getSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := p.sessions.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (p *ProctorService) publish(ctx context.Context, id uuid.UUID, eventType string, payload interface{}) {
	if err := p.events.Publish(ctx, id, eventType, payload); err != nil {
		p.log.Warn().Err(err).Str("event", eventType).Msg("Event publish failed")
	}
}
