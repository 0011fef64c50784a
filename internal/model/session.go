package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
//
// ACTIVE sessions carry the current question index; SEALED means the final
// answer is committed and grading is pending; GRADED and NULLIFIED are
// terminal. NULLIFIED pre-empts every other transition.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusSealed    SessionStatus = "SEALED"
	SessionStatusGraded    SessionStatus = "GRADED"
	SessionStatusNullified SessionStatus = "NULLIFIED"
)

// Fixed exam parameters. One session type: three questions, ten minutes
// each, scored 0-25 per question.
const (
	QuestionCount      = 3
	BaseScorePerAnswer = 25
	MaxClarifications  = 3
	QuestionBudgetMS   = 600_000
)

// NullifiedAnswerSentinel replaces the active answer slot when a critical
// proctoring violation voids the session.
const NullifiedAnswerSentinel = "[ANSWER NULLIFIED - PROCTORING VIOLATION]"

// Session is one exam attempt by one user. It is the single persisted
// source of truth shared by timing, autosave, progression, scoring and
// proctoring; all of them re-read it before mutating.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	OwnerID         *int          `json:"owner_id,omitempty"`
	Questions       []string      `json:"questions"`
	Answers         []string      `json:"answers"`
	CurrentIndex    int           `json:"current_index"`
	Draft           string        `json:"draft"`
	QuestionsAsked  int           `json:"questions_asked"`
	QuestionPenalty int           `json:"question_penalty"`
	BaseScore       int           `json:"base_score"`
	InfoGainBonus   int           `json:"info_gain_bonus"`
	FinalScore      *int          `json:"final_score,omitempty"`
	Status          SessionStatus `json:"status"`
	// QuestionStartedAt holds the absolute start timestamp for each question
	// index that has been reached. Entries are appended once and never
	// rewritten; len(QuestionStartedAt) <= QuestionCount.
	QuestionStartedAt []time.Time `json:"question_started_at"`
	LastActivityAt    time.Time   `json:"last_activity_at"`
	CreatedAt         time.Time   `json:"created_at"`
	GradedAt          *time.Time  `json:"graded_at,omitempty"`
}

// Terminal reports whether the session accepts no further answer, draft or
// progression mutations.
func (s *Session) Terminal() bool {
	return s.Status != SessionStatusActive
}

// Sealed reports whether the session has left the ACTIVE phase. GRADED and
// NULLIFIED imply sealed.
func (s *Session) Sealed() bool {
	return s.Status != SessionStatusActive
}

// OnLastQuestion reports whether CurrentIndex points at the final slot.
func (s *Session) OnLastQuestion() bool {
	return s.CurrentIndex >= QuestionCount-1
}

// ProvisionalScore is the deterministic base−penalty+bonus figure shown
// before AI grading completes. The AI-graded FinalScore supersedes it.
func (s *Session) ProvisionalScore() int {
	return s.BaseScore - s.QuestionPenalty + s.InfoGainBonus
}

// CreateSessionRequest is the payload for starting a new exam attempt.
// The seed question is the only caller-supplied prompt; follow-ups are
// generated lazily on the first advance.
type CreateSessionRequest struct {
	TaskQuestion string `json:"task_question" binding:"required,min=10"`
}

// SubmitAnswerRequest commits an answer for a question index.
type SubmitAnswerRequest struct {
	Index  int    `json:"index" binding:"min=0,max=2"`
	Answer string `json:"answer"`
}

// AutosaveRequest overwrites the in-progress draft for the current question.
type AutosaveRequest struct {
	Draft string `json:"draft" binding:"required"`
}

// TimingInfo is the authoritative timing snapshot returned by check-timing.
// All durations are milliseconds.
type TimingInfo struct {
	SessionElapsed    int64     `json:"session_elapsed"`
	QuestionElapsed   int64     `json:"question_elapsed"`
	Expired           bool      `json:"expired"`
	AutoSubmitted     bool      `json:"auto_submitted"`
	TimeRemaining     int64     `json:"time_remaining"`
	QuestionStartTime time.Time `json:"question_start_time"`
}
