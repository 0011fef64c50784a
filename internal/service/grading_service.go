package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/ai"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Placeholder feedback for answers that never reach the AI grader.
const (
	emptyAnswerFeedback  = "No answer was submitted for this question."
	degradedFeedback     = "This answer could not be automatically graded. A score of 0 was assigned."
	clarificationContext = "the current exam question"
)

// GradingService owns the scoring pipeline: penalty-counted clarification
// turns and the asynchronous full-session grading pass.
type GradingService struct {
	sessions  SessionStore
	messages  MessageStore
	users     UserStore
	generator TextGenerator
	events    EventSink
	log       zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	sessions SessionStore,
	messages MessageStore,
	users UserStore,
	generator TextGenerator,
	events EventSink,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		sessions:  sessions,
		messages:  messages,
		users:     users,
		generator: generator,
		events:    events,
		log:       log.With().Str("component", "grading_service").Logger(),
	}
}

// ClarificationResult is the outcome of one clarification turn.
type ClarificationResult struct {
	UserMessage *model.ChatMessage `json:"user_message"`
	AIMessage   *model.ChatMessage `json:"ai_message"`
	Session     *model.Session     `json:"session"`
}

// AskClarification runs one capped clarification exchange about the
// current question. The cap check happens before any AI call: a rejected
// attempt costs nothing and mutates nothing.
func (g *GradingService) AskClarification(ctx context.Context, sessionID uuid.UUID, question string) (*ClarificationResult, error) {
	session, err := g.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}
	if session.QuestionsAsked >= model.MaxClarifications {
		return nil, ErrClarificationLimit
	}

	taskContext := clarificationContext
	if session.CurrentIndex < len(session.Questions) {
		taskContext = session.Questions[session.CurrentIndex]
	}

	prompt, system := ai.ClarificationPrompt(question, taskContext)
	answer, err := g.generator.Generate(ctx, prompt, system)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	userMsg := &model.ChatMessage{SessionID: sessionID, Content: question, IsUser: true}
	if err := g.messages.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user turn: %w", err)
	}
	aiMsg := &model.ChatMessage{SessionID: sessionID, Content: answer, IsUser: false}
	if err := g.messages.Create(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("persist AI turn: %w", err)
	}

	// Both counters move together; the guarded update re-checks the cap.
	applied, err := g.sessions.IncrementClarification(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("increment clarification: %w", err)
	}
	if !applied {
		return nil, ErrClarificationLimit
	}

	updated, err := g.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &ClarificationResult{UserMessage: userMsg, AIMessage: aiMsg, Session: updated}, nil
}

// ChatHistory lists all clarification turns for a session.
func (g *GradingService) ChatHistory(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	if _, err := g.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return g.messages.ListBySession(ctx, sessionID)
}

// GradeResult is the outcome of a full-session grading pass.
type GradeResult struct {
	Grades         []int      `json:"grades"`
	TotalScore     int        `json:"total_score"`
	DetailedGrades []ai.Grade `json:"detailed_grades"`
	Questions      []string   `json:"questions"`
	Answers        []string   `json:"answers"`
}

// GradeSession grades every question/answer pair of a sealed session and
// records the summed final score. Empty answers score 0 without an AI
// call; a per-question upstream failure degrades that question to 0 and
// the batch continues. Re-grading an already GRADED session overwrites
// the previous result. Nullified sessions are never graded; their score
// is pinned at 0.
func (g *GradingService) GradeSession(ctx context.Context, sessionID uuid.UUID) (*GradeResult, error) {
	session, err := g.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case model.SessionStatusNullified:
		return nil, ErrSessionTerminal
	case model.SessionStatusActive:
		return nil, ErrSessionNotSealed
	}

	result := &GradeResult{
		Grades:         make([]int, 0, len(session.Questions)),
		DetailedGrades: make([]ai.Grade, 0, len(session.Questions)),
		Questions:      session.Questions,
		Answers:        session.Answers,
	}

	for i, question := range session.Questions {
		answer := ""
		if i < len(session.Answers) {
			answer = session.Answers[i]
		}
		grade := g.gradeAnswer(ctx, question, answer)
		result.Grades = append(result.Grades, grade.Score)
		result.DetailedGrades = append(result.DetailedGrades, grade)
		result.TotalScore += grade.Score
	}

	marked, err := g.sessions.MarkGraded(ctx, sessionID, result.TotalScore)
	if err != nil {
		return nil, fmt.Errorf("mark graded: %w", err)
	}
	if !marked {
		// The session was nullified while grading ran; the zero score
		// written by the nullification stands.
		return nil, ErrSessionTerminal
	}

	if session.OwnerID != nil {
		if err := g.users.OverwriteAggregateScore(ctx, *session.OwnerID, result.TotalScore); err != nil {
			g.log.Error().Err(err).Int("owner_id", *session.OwnerID).Msg("Aggregate score overwrite failed")
		}
	}

	if err := g.events.Publish(ctx, sessionID, repository.EventGraded, map[string]int{"total_score": result.TotalScore}); err != nil {
		g.log.Warn().Err(err).Msg("Event publish failed")
	}

	g.log.Info().
		Str("session_id", sessionID.String()).
		Int("total_score", result.TotalScore).
		Msg("Session graded")

	return result, nil
}

// gradeAnswer grades a single pair. It never returns an error: every
// failure mode degrades to a zero score with placeholder feedback so one
// bad question cannot abort the batch.
func (g *GradingService) gradeAnswer(ctx context.Context, question, answer string) ai.Grade {
	if strings.TrimSpace(answer) == "" {
		return ai.Grade{Score: 0, Summary: emptyAnswerFeedback}
	}

	prompt, system := ai.GradingPrompt(question, answer)
	raw, err := g.generator.Generate(ctx, prompt, system)
	if err != nil {
		g.log.Warn().Err(err).Msg("Grading call failed, degrading to zero")
		return ai.Grade{Score: 0, Summary: degradedFeedback}
	}

	grade, err := ai.ParseGrade(raw, model.BaseScorePerAnswer)
	if err != nil {
		g.log.Warn().Err(err).Msg("Grading response unparseable, degrading to zero")
		return ai.Grade{Score: 0, Summary: degradedFeedback}
	}
	return grade
}

func (g *GradingService) getSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := g.sessions.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
