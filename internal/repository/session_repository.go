package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// SessionRepository handles exam session data access.
//
// Guarded transitions (seal, nullify, clarification increment, auto-submit)
// are expressed as conditional UPDATEs so a race between an in-flight
// mutation and a nullification resolves inside PostgreSQL: the losing
// statement simply matches zero rows.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, owner_id, questions, answers, current_index, draft,
	questions_asked, question_penalty, base_score, info_gain_bonus,
	final_score, status, question_started_at, last_activity_at, created_at, graded_at`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Questions, &s.Answers, &s.CurrentIndex, &s.Draft,
		&s.QuestionsAsked, &s.QuestionPenalty, &s.BaseScore, &s.InfoGainBonus,
		&s.FinalScore, &s.Status, &s.QuestionStartedAt, &s.LastActivityAt, &s.CreatedAt, &s.GradedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session and fills in the generated ID and timestamps.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO sessions
		   (owner_id, questions, answers, current_index, draft,
		    questions_asked, question_penalty, base_score, info_gain_bonus, status)
		 VALUES ($1, $2, $3, 0, '', 0, 0, $4, 0, $5)
		 RETURNING id, last_activity_at, created_at`,
		s.OwnerID, s.Questions, s.Answers, s.BaseScore, model.SessionStatusActive,
	).Scan(&s.ID, &s.LastActivityAt, &s.CreatedAt)
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// SaveDraft overwrites the draft for an active session. Last write wins;
// the single-writer-per-session assumption means no merge logic is needed.
// Returns false if the session is no longer active.
func (r *SessionRepository) SaveDraft(ctx context.Context, id uuid.UUID, draft string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET draft = $2, last_activity_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, draft, model.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordQuestionStart extends the start-timestamp array through question
// index. The cardinality guard makes the write set-once: a concurrent call
// for the same index matches zero rows and stored timestamps are never
// rewritten. Questions skipped without a timing check are backfilled with
// the same timestamp so the array always covers indexes 0..index.
func (r *SessionRepository) RecordQuestionStart(ctx context.Context, id uuid.UUID, index int, startedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET question_started_at = question_started_at ||
		     array_fill($3::timestamptz, ARRAY[$2 + 1 - cardinality(question_started_at)])
		 WHERE id = $1 AND cardinality(question_started_at) <= $2`,
		id, index, startedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CommitDraft moves the draft into the answer slot for index and clears it.
// The non-empty-draft guard makes expiry auto-submit idempotent under
// overlapping timing checks. Returns whether this call performed the commit.
func (r *SessionRepository) CommitDraft(ctx context.Context, id uuid.UUID, index int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET answers[$2] = draft, draft = '', last_activity_at = NOW()
		 WHERE id = $1 AND draft <> '' AND status = $3`,
		id, index+1, model.SessionStatusActive) // Postgres arrays are 1-based
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetAnswer writes an explicit answer into the slot for index.
func (r *SessionRepository) SetAnswer(ctx context.Context, id uuid.UUID, index int, answer string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET answers[$2] = $3, last_activity_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, index+1, answer, model.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AppendFollowUps appends the generated follow-up prompts exactly once:
// the cardinality guard restricts the write to sessions still holding only
// the seed prompt.
func (r *SessionRepository) AppendFollowUps(ctx context.Context, id uuid.UUID, followUps []string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET questions = questions || $2::text[]
		 WHERE id = $1 AND cardinality(questions) = 1`,
		id, followUps)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Advance moves an active session to the next question, resetting the
// per-question clarification counters and clearing the draft.
func (r *SessionRepository) Advance(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET current_index = current_index + 1,
		     questions_asked = 0,
		     question_penalty = 0,
		     draft = '',
		     last_activity_at = NOW()
		 WHERE id = $1 AND status = $2 AND current_index < $3`,
		id, model.SessionStatusActive, model.QuestionCount-1)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementClarification bumps both per-question counters atomically,
// refusing once the cap is reached. Returns whether the increment applied.
func (r *SessionRepository) IncrementClarification(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET questions_asked = questions_asked + 1,
		     question_penalty = question_penalty + 1,
		     last_activity_at = NOW()
		 WHERE id = $1 AND status = $2 AND questions_asked < $3`,
		id, model.SessionStatusActive, model.MaxClarifications)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Seal transitions ACTIVE → SEALED.
func (r *SessionRepository) Seal(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = $2, draft = '', last_activity_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, model.SessionStatusSealed, model.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Nullify forces an active session into the terminal voided state: zero
// final score and the active answer slot replaced with the sentinel. The
// write is one-way; a session that already left ACTIVE is untouched.
func (r *SessionRepository) Nullify(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = $2,
		     final_score = 0,
		     answers[current_index + 1] = $3,
		     draft = '',
		     last_activity_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, model.SessionStatusNullified, model.NullifiedAnswerSentinel, model.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkGraded records the AI-graded total and transitions SEALED → GRADED.
// Re-grading an already GRADED session overwrites the score; NULLIFIED
// sessions are never touched.
func (r *SessionRepository) MarkGraded(ctx context.Context, id uuid.UUID, finalScore int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = $2, final_score = $3, graded_at = NOW(), last_activity_at = NOW()
		 WHERE id = $1 AND status IN ($4, $2)`,
		id, model.SessionStatusGraded, finalScore, model.SessionStatusSealed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByOwner retrieves all sessions owned by a user, newest first.
func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID int) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
