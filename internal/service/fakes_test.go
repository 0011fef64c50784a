package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
)

// The fakes surface the same not-found marker as the Redis-backed store.
var repositoryNotFound = repository.ErrProctorStateNotFound

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// In-memory store fakes mirroring the guarded-update semantics of the
// PostgreSQL repository: guarded writes return false instead of erroring
// when the session state no longer permits them.

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*model.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.LastActivityAt = s.CreatedAt
	f.sessions[s.ID] = snapshot(s)
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return snapshot(s), nil
}

func (f *fakeSessionStore) SaveDraft(_ context.Context, id uuid.UUID, draft string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Draft = draft
	return true, nil
}

func (f *fakeSessionStore) RecordQuestionStart(_ context.Context, id uuid.UUID, index int, startedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || len(s.QuestionStartedAt) > index {
		return false, nil
	}
	for len(s.QuestionStartedAt) <= index {
		s.QuestionStartedAt = append(s.QuestionStartedAt, startedAt)
	}
	return true, nil
}

func (f *fakeSessionStore) CommitDraft(_ context.Context, id uuid.UUID, index int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || s.Draft == "" {
		return false, nil
	}
	s.Answers[index] = s.Draft
	s.Draft = ""
	return true, nil
}

func (f *fakeSessionStore) SetAnswer(_ context.Context, id uuid.UUID, index int, answer string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Answers[index] = answer
	return true, nil
}

func (f *fakeSessionStore) AppendFollowUps(_ context.Context, id uuid.UUID, followUps []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || len(s.Questions) != 1 {
		return false, nil
	}
	s.Questions = append(s.Questions, followUps...)
	return true, nil
}

func (f *fakeSessionStore) Advance(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || s.CurrentIndex >= model.QuestionCount-1 {
		return false, nil
	}
	s.CurrentIndex++
	s.QuestionsAsked = 0
	s.QuestionPenalty = 0
	s.Draft = ""
	return true, nil
}

func (f *fakeSessionStore) IncrementClarification(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive || s.QuestionsAsked >= model.MaxClarifications {
		return false, nil
	}
	s.QuestionsAsked++
	s.QuestionPenalty++
	return true, nil
}

func (f *fakeSessionStore) Seal(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Status = model.SessionStatusSealed
	s.Draft = ""
	return true, nil
}

func (f *fakeSessionStore) Nullify(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Status = model.SessionStatusNullified
	zero := 0
	s.FinalScore = &zero
	s.Answers[s.CurrentIndex] = model.NullifiedAnswerSentinel
	s.Draft = ""
	return true, nil
}

func (f *fakeSessionStore) MarkGraded(_ context.Context, id uuid.UUID, finalScore int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || (s.Status != model.SessionStatusSealed && s.Status != model.SessionStatusGraded) {
		return false, nil
	}
	s.Status = model.SessionStatusGraded
	s.FinalScore = &finalScore
	now := time.Now()
	s.GradedAt = &now
	return true, nil
}

func (f *fakeSessionStore) ListByOwner(_ context.Context, ownerID int) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Session
	for _, s := range f.sessions {
		if s.OwnerID != nil && *s.OwnerID == ownerID {
			out = append(out, *snapshot(s))
		}
	}
	return out, nil
}

// mustGet reads the stored record directly, bypassing the copy.
func (f *fakeSessionStore) mustGet(id uuid.UUID) *model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return snapshot(f.sessions[id])
}

func snapshot(s *model.Session) *model.Session {
	c := *s
	c.Questions = append([]string(nil), s.Questions...)
	c.Answers = append([]string(nil), s.Answers...)
	c.QuestionStartedAt = append([]time.Time(nil), s.QuestionStartedAt...)
	return &c
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	nextID   int
}

func (f *fakeMessageStore) Create(_ context.Context, m *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	scores map[int]int
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{scores: make(map[int]int)}
}

func (f *fakeUserStore) OverwriteAggregateScore(_ context.Context, id, score int) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[id] = score
	return nil
}

// fakeGenerator returns canned responses in order, or a fixed error. An
// optional hook runs before each call.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	hook      func()
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type publishedEvent struct {
	SessionID uuid.UUID
	Type      string
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeEventSink) Publish(_ context.Context, sessionID uuid.UUID, eventType string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{SessionID: sessionID, Type: eventType})
	return nil
}

func (f *fakeEventSink) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeEventSink) has(eventType string) bool {
	for _, t := range f.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

type fakeGradeQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (f *fakeGradeQueue) EnqueueGradeSession(_ context.Context, sessionID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, sessionID)
	return nil
}

func (f *fakeGradeQueue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

type fakeViolationQueue struct {
	mu         sync.Mutex
	violations []*model.Violation
	err        error
}

func (f *fakeViolationQueue) EnqueueViolation(_ context.Context, v *model.Violation) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations = append(f.violations, v)
	return nil
}

type fakeViolationStore struct {
	mu   sync.Mutex
	rows []model.Violation
}

func (f *fakeViolationStore) Insert(_ context.Context, v *model.Violation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *v)
	return nil
}

func (f *fakeViolationStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Violation
	for _, v := range f.rows {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeProctorStateStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]*model.ProctorState
	counts map[uuid.UUID]*model.ViolationCounts
}

func newFakeProctorStateStore() *fakeProctorStateStore {
	return &fakeProctorStateStore{
		states: make(map[uuid.UUID]*model.ProctorState),
		counts: make(map[uuid.UUID]*model.ViolationCounts),
	}
}

func (f *fakeProctorStateStore) Initialize(_ context.Context, state *model.ProctorState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *state
	f.states[state.SessionID] = &c
	return nil
}

func (f *fakeProctorStateStore) Get(_ context.Context, sessionID uuid.UUID) (*model.ProctorState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[sessionID]
	if !ok {
		return nil, repositoryNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeProctorStateStore) SetFlags(_ context.Context, sessionID uuid.UUID, camera, fullscreen *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[sessionID]
	if !ok {
		return repositoryNotFound
	}
	if camera != nil {
		s.CameraEnabled = *camera
	}
	if fullscreen != nil {
		s.FullscreenActive = *fullscreen
	}
	return nil
}

func (f *fakeProctorStateStore) Deactivate(_ context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[sessionID]; ok {
		s.Active = false
	}
	return nil
}

func (f *fakeProctorStateStore) IncrementCount(_ context.Context, sessionID uuid.UUID, severity model.ViolationSeverity) (model.ViolationCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counts[sessionID]
	if !ok {
		c = &model.ViolationCounts{}
		f.counts[sessionID] = c
	}
	if severity == model.SeverityCritical {
		c.Critical++
	} else {
		c.Warnings++
	}
	return *c, nil
}

func (f *fakeProctorStateStore) Counts(_ context.Context, sessionID uuid.UUID) (model.ViolationCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.counts[sessionID]; ok {
		return *c, nil
	}
	return model.ViolationCounts{}, nil
}
