package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/ai"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/rs/zerolog"
)

// SessionService owns the exam session lifecycle: creation, the
// server-authoritative timing reconciler, draft autosave and question
// progression. Scoring and proctoring mutate the same record through
// their own services; every mutation here re-reads state first so a
// violation-driven nullification always wins a race against an in-flight
// call.
type SessionService struct {
	store     SessionStore
	generator TextGenerator
	events    EventSink
	grades    GradeQueue
	budget    time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionService creates a new SessionService. budget is the fixed
// per-question time allowance.
func NewSessionService(
	store SessionStore,
	generator TextGenerator,
	events EventSink,
	grades GradeQueue,
	budget time.Duration,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		store:     store,
		generator: generator,
		events:    events,
		grades:    grades,
		budget:    budget,
		now:       time.Now,
		log:       log.With().Str("component", "session_service").Logger(),
	}
}

// CreateSession starts a new exam attempt seeded with one task question.
// The answer list is pre-sized to the fixed question count; follow-up
// prompts are generated lazily on the first advance.
func (s *SessionService) CreateSession(ctx context.Context, taskQuestion string, ownerID *int) (*model.Session, error) {
	session := &model.Session{
		OwnerID:   ownerID,
		Questions: []string{taskQuestion},
		Answers:   make([]string, model.QuestionCount),
		BaseScore: model.BaseScorePerAnswer,
		Status:    model.SessionStatusActive,
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().Str("session_id", session.ID.String()).Msg("Session created")
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *SessionService) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// SaveDraft overwrites the in-progress answer text for the current
// question. Last write wins under the single-writer assumption. Terminal
// sessions report a conflict so a nullification beats a stale autosave.
func (s *SessionService) SaveDraft(ctx context.Context, id uuid.UUID, draft string) (time.Time, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if session.Terminal() {
		return time.Time{}, ErrSessionTerminal
	}

	saved, err := s.store.SaveDraft(ctx, id, draft)
	if err != nil {
		return time.Time{}, fmt.Errorf("save draft: %w", err)
	}
	if !saved {
		// Lost the race against a seal or nullification.
		return time.Time{}, ErrSessionTerminal
	}

	s.publish(ctx, id, repository.EventDraftSaved, nil)
	return s.now().UTC(), nil
}

// CheckTiming is the authoritative timing reconciler. The server clock is
// the only trustworthy one: the client timer is display-only.
//
// The first call for a question records its start timestamp (set-once).
// Once the budget is exceeded, a non-empty draft is committed as the
// answer; the empty-draft guard makes that commit idempotent under
// overlapping calls. Expiry on the final question seals the session and
// schedules grading.
func (s *SessionService) CheckTiming(ctx context.Context, id uuid.UUID) (*model.TimingInfo, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}

	now := s.now()

	// Lazily record the start timestamp for the current question. A lost
	// race means a concurrent call recorded it; re-read for the stored one.
	if len(session.QuestionStartedAt) <= session.CurrentIndex {
		recorded, err := s.store.RecordQuestionStart(ctx, id, session.CurrentIndex, now)
		if err != nil {
			return nil, fmt.Errorf("record question start: %w", err)
		}
		if recorded {
			for len(session.QuestionStartedAt) <= session.CurrentIndex {
				session.QuestionStartedAt = append(session.QuestionStartedAt, now)
			}
		} else {
			if session, err = s.GetSession(ctx, id); err != nil {
				return nil, err
			}
			if session.Terminal() {
				return nil, ErrSessionTerminal
			}
		}
	}

	start := session.QuestionStartedAt[session.CurrentIndex]
	elapsed := now.Sub(start)
	budgetMS := s.budget.Milliseconds()
	expired := elapsed > s.budget

	autoSubmitted := false
	if expired && strings.TrimSpace(session.Draft) != "" {
		committed, err := s.store.CommitDraft(ctx, id, session.CurrentIndex)
		if err != nil {
			return nil, fmt.Errorf("auto-submit draft: %w", err)
		}
		autoSubmitted = committed

		if committed {
			s.publish(ctx, id, repository.EventAutoSubmitted, map[string]int{"index": session.CurrentIndex})

			// Expiry auto-submit of the final question seals the session.
			if session.OnLastQuestion() {
				s.sealAndScheduleGrading(ctx, id)
			}
		}
	}

	elapsedMS := elapsed.Milliseconds()
	remaining := budgetMS - elapsedMS
	if remaining < 0 {
		remaining = 0
	}

	return &model.TimingInfo{
		// Approximation: every completed question is charged its full
		// budget even when submitted early.
		SessionElapsed:    int64(session.CurrentIndex)*budgetMS + elapsedMS,
		QuestionElapsed:   elapsedMS,
		Expired:           expired,
		AutoSubmitted:     autoSubmitted,
		TimeRemaining:     remaining,
		QuestionStartTime: start,
	}, nil
}

// SubmitAnswer commits the answer for the active question. On the final
// question it seals the session and schedules grading; otherwise it
// advances to the next question.
func (s *SessionService) SubmitAnswer(ctx context.Context, id uuid.UUID, index int, answer string) (*model.Session, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}
	if index != session.CurrentIndex {
		return nil, ErrWrongQuestionIndex
	}

	if _, err := s.store.SetAnswer(ctx, id, index, answer); err != nil {
		return nil, fmt.Errorf("set answer: %w", err)
	}

	if session.OnLastQuestion() {
		s.sealAndScheduleGrading(ctx, id)
	} else {
		if err := s.advance(ctx, session); err != nil {
			return nil, err
		}
	}

	return s.GetSession(ctx, id)
}

// AdvanceQuestion moves an active session to the next question without
// writing an answer. Used when the caller has already committed the
// answer through autosave/auto-submit.
func (s *SessionService) AdvanceQuestion(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}
	if session.OnLastQuestion() {
		return nil, ErrLastQuestion
	}

	if err := s.advance(ctx, session); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, id)
}

// advance performs the progression step: lazy single-shot follow-up
// generation, index bump with counter reset, and the new question's start
// timestamp.
func (s *SessionService) advance(ctx context.Context, session *model.Session) error {
	if len(session.Questions) == 1 {
		followUps := s.generateFollowUps(ctx, session.Questions[0])
		if _, err := s.store.AppendFollowUps(ctx, session.ID, followUps); err != nil {
			return fmt.Errorf("append follow-ups: %w", err)
		}
	}

	advanced, err := s.store.Advance(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("advance session: %w", err)
	}
	if !advanced {
		return ErrSessionTerminal
	}

	newIndex := session.CurrentIndex + 1
	if _, err := s.store.RecordQuestionStart(ctx, session.ID, newIndex, s.now()); err != nil {
		return fmt.Errorf("record question start: %w", err)
	}

	s.publish(ctx, session.ID, repository.EventQuestionAdvanced, map[string]int{"index": newIndex})
	return nil
}

// generateFollowUps requests exactly two follow-up prompts, degrading to
// the canned pair on upstream failure so progression never blocks.
func (s *SessionService) generateFollowUps(ctx context.Context, seed string) []string {
	prompt, system := ai.FollowUpPrompt(seed)
	raw, err := s.generator.Generate(ctx, prompt, system)
	if err != nil {
		s.log.Warn().Err(err).Msg("Follow-up generation failed, using defaults")
		return ai.DefaultFollowUps()
	}
	return ai.ParseFollowUps(raw)
}

// ListByOwner retrieves a user's sessions, newest first.
func (s *SessionService) ListByOwner(ctx context.Context, ownerID int) ([]model.Session, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

func (s *SessionService) sealAndScheduleGrading(ctx context.Context, id uuid.UUID) {
	sealed, err := s.store.Seal(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Seal failed")
		return
	}
	if !sealed {
		return // Already sealed or nullified.
	}

	s.publish(ctx, id, repository.EventSealed, nil)

	if err := s.grades.EnqueueGradeSession(ctx, id); err != nil {
		// Grading can still be triggered on demand through the grade
		// endpoint, so a lost enqueue is recoverable.
		s.log.Error().Err(err).Str("session_id", id.String()).Msg("Failed to enqueue grading")
	}
}

func (s *SessionService) publish(ctx context.Context, id uuid.UUID, eventType string, payload interface{}) {
	if err := s.events.Publish(ctx, id, eventType, payload); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("Event publish failed")
	}
}
