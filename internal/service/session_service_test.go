package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ranklift/ranklift-backend/internal/ai"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/rs/zerolog"
)

const testBudget = 10 * time.Minute

type sessionFixture struct {
	svc    *SessionService
	store  *fakeSessionStore
	gen    *fakeGenerator
	events *fakeEventSink
	grades *fakeGradeQueue
	clock  *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store := newFakeSessionStore()
	gen := &fakeGenerator{responses: []string{"1. Follow-up one?\n2. Follow-up two?"}}
	events := &fakeEventSink{}
	grades := &fakeGradeQueue{}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	svc := NewSessionService(store, gen, events, grades, testBudget, zerolog.Nop())
	svc.now = func() time.Time { return clock.now }

	return &sessionFixture{svc: svc, store: store, gen: gen, events: events, grades: grades, clock: clock}
}

func (f *sessionFixture) create(t *testing.T) *model.Session {
	t.Helper()
	session, err := f.svc.CreateSession(context.Background(), "Design a URL shortener service.", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

func TestCreateSession(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)

	if session.Status != model.SessionStatusActive {
		t.Errorf("status = %s, want ACTIVE", session.Status)
	}
	if len(session.Questions) != 1 {
		t.Errorf("questions = %d, want 1 (follow-ups are lazy)", len(session.Questions))
	}
	if len(session.Answers) != model.QuestionCount {
		t.Errorf("answers pre-sized to %d, want %d", len(session.Answers), model.QuestionCount)
	}
	if session.BaseScore != model.BaseScorePerAnswer {
		t.Errorf("base score = %d, want %d", session.BaseScore, model.BaseScorePerAnswer)
	}
}

func TestSubmitAnswerAdvancesAndGeneratesFollowUps(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)

	updated, err := f.svc.SubmitAnswer(context.Background(), session.ID, 0, "My first answer.")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if updated.CurrentIndex != 1 {
		t.Errorf("current index = %d, want 1", updated.CurrentIndex)
	}
	if len(updated.Questions) != model.QuestionCount {
		t.Fatalf("questions = %d, want %d after lazy follow-up generation", len(updated.Questions), model.QuestionCount)
	}
	if updated.Questions[1] != "Follow-up one?" || updated.Questions[2] != "Follow-up two?" {
		t.Errorf("unexpected follow-ups: %q", updated.Questions[1:])
	}
	if updated.Answers[0] != "My first answer." {
		t.Errorf("answer[0] = %q", updated.Answers[0])
	}
	if !f.events.has(repository.EventQuestionAdvanced) {
		t.Error("expected question_advanced event")
	}
}

func TestSubmitAnswerSecondAdvanceKeepsQuestions(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)

	if _, err := f.svc.SubmitAnswer(context.Background(), session.ID, 0, "a1"); err != nil {
		t.Fatalf("submit 0: %v", err)
	}
	genCalls := f.gen.callCount()

	updated, err := f.svc.SubmitAnswer(context.Background(), session.ID, 1, "a2")
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if f.gen.callCount() != genCalls {
		t.Error("follow-up generation is single-shot, must not run on second advance")
	}
	if updated.CurrentIndex != 2 {
		t.Errorf("current index = %d, want 2", updated.CurrentIndex)
	}
}

func TestSubmitAnswerWrongIndex(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)

	if _, err := f.svc.SubmitAnswer(context.Background(), session.ID, 2, "skip ahead"); !errors.Is(err, ErrWrongQuestionIndex) {
		t.Fatalf("err = %v, want ErrWrongQuestionIndex", err)
	}

	current := f.store.mustGet(session.ID)
	if current.CurrentIndex != 0 || current.Answers[2] != "" {
		t.Error("rejected submit must not mutate the session")
	}
}

func TestSubmitLastQuestionSealsAndSchedulesGrading(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	for i := 0; i < model.QuestionCount; i++ {
		if _, err := f.svc.SubmitAnswer(ctx, session.ID, i, "answer"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	final := f.store.mustGet(session.ID)
	if final.Status != model.SessionStatusSealed {
		t.Errorf("status = %s, want SEALED", final.Status)
	}
	if f.grades.count() != 1 {
		t.Errorf("grade queue = %d entries, want 1", f.grades.count())
	}
	if !f.events.has(repository.EventSealed) {
		t.Error("expected sealed event")
	}
}

func TestAdvanceQuestionOnLast(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.AdvanceQuestion(ctx, session.ID); err != nil {
		t.Fatalf("advance to 1: %v", err)
	}
	if _, err := f.svc.AdvanceQuestion(ctx, session.ID); err != nil {
		t.Fatalf("advance to 2: %v", err)
	}
	if _, err := f.svc.AdvanceQuestion(ctx, session.ID); !errors.Is(err, ErrLastQuestion) {
		t.Fatalf("err = %v, want ErrLastQuestion", err)
	}
}

func TestFollowUpGenerationFallsBackToDefaults(t *testing.T) {
	f := newSessionFixture(t)
	f.gen.err = errors.New("upstream down")
	session := f.create(t)

	updated, err := f.svc.SubmitAnswer(context.Background(), session.ID, 0, "a1")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	defaults := ai.DefaultFollowUps()
	if updated.Questions[1] != defaults[0] || updated.Questions[2] != defaults[1] {
		t.Errorf("expected canned follow-ups, got %q", updated.Questions[1:])
	}
}

func TestSaveDraft(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)

	savedAt, err := f.svc.SaveDraft(context.Background(), session.ID, "work in progress")
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if !savedAt.Equal(f.clock.now.UTC()) {
		t.Errorf("saved_at = %v, want server clock %v", savedAt, f.clock.now.UTC())
	}
	if f.store.mustGet(session.ID).Draft != "work in progress" {
		t.Error("draft not persisted")
	}
	if !f.events.has(repository.EventDraftSaved) {
		t.Error("expected draft_saved event")
	}
}

func TestSaveDraftLastWriteWins(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.SaveDraft(ctx, session.ID, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SaveDraft(ctx, session.ID, "second"); err != nil {
		t.Fatal(err)
	}
	if draft := f.store.mustGet(session.ID).Draft; draft != "second" {
		t.Errorf("draft = %q, want plain overwrite", draft)
	}
}

func TestCheckTimingRecordsStartAndCountsDown(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	timing, err := f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatalf("CheckTiming: %v", err)
	}
	if timing.Expired {
		t.Error("fresh question must not be expired")
	}
	if timing.TimeRemaining != testBudget.Milliseconds() {
		t.Errorf("remaining = %d, want full budget", timing.TimeRemaining)
	}
	if !timing.QuestionStartTime.Equal(f.clock.now) {
		t.Errorf("start time = %v, want first-check time", timing.QuestionStartTime)
	}

	// The start timestamp is set-once: a later check keeps the original.
	f.clock.advance(3 * time.Minute)
	timing, err = f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if timing.QuestionElapsed != (3 * time.Minute).Milliseconds() {
		t.Errorf("elapsed = %d, want 180000", timing.QuestionElapsed)
	}
}

func TestCheckTimingAutoSubmitIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.CheckTiming(ctx, session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SaveDraft(ctx, session.ID, "my draft answer"); err != nil {
		t.Fatal(err)
	}

	f.clock.advance(testBudget + time.Second)

	timing, err := f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !timing.Expired || !timing.AutoSubmitted {
		t.Fatalf("expired=%v autoSubmitted=%v, want both true", timing.Expired, timing.AutoSubmitted)
	}
	if timing.TimeRemaining != 0 {
		t.Errorf("remaining = %d, want clamped to 0", timing.TimeRemaining)
	}

	current := f.store.mustGet(session.ID)
	if current.Answers[0] != "my draft answer" {
		t.Errorf("answer[0] = %q, want committed draft", current.Answers[0])
	}
	if current.Draft != "" {
		t.Error("draft must be cleared after commit")
	}

	// Overlapping expiry check: the empty-draft guard refuses a second commit.
	timing, err = f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if timing.AutoSubmitted {
		t.Error("second check must not report a fresh auto-submit")
	}
}

func TestCheckTimingExpiredEmptyDraft(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.CheckTiming(ctx, session.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(testBudget + time.Second)

	timing, err := f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !timing.Expired {
		t.Error("want expired")
	}
	if timing.AutoSubmitted {
		t.Error("nothing to commit, auto_submitted must be false")
	}
	if f.store.mustGet(session.ID).Answers[0] != "" {
		t.Error("empty draft must not produce an answer")
	}
}

func TestCheckTimingExpiryOnLastQuestionSeals(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitAnswer(ctx, session.ID, 0, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, session.ID, 1, "a2"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SaveDraft(ctx, session.ID, "final draft"); err != nil {
		t.Fatal(err)
	}

	f.clock.advance(testBudget + time.Second)

	timing, err := f.svc.CheckTiming(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !timing.AutoSubmitted {
		t.Fatal("want auto-submit of the final draft")
	}

	final := f.store.mustGet(session.ID)
	if final.Status != model.SessionStatusSealed {
		t.Errorf("status = %s, want SEALED", final.Status)
	}
	if final.Answers[2] != "final draft" {
		t.Errorf("answer[2] = %q", final.Answers[2])
	}
	if f.grades.count() != 1 {
		t.Error("expected grading scheduled")
	}
}

func TestTerminalSessionRejectsMutations(t *testing.T) {
	f := newSessionFixture(t)
	session := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.SaveDraft(ctx, session.ID, "before"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Nullify(ctx, session.ID); err != nil {
		t.Fatal(err)
	}
	before := f.store.mustGet(session.ID)

	if _, err := f.svc.SaveDraft(ctx, session.ID, "after"); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("SaveDraft err = %v, want ErrSessionTerminal", err)
	}
	if _, err := f.svc.CheckTiming(ctx, session.ID); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("CheckTiming err = %v, want ErrSessionTerminal", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, session.ID, 0, "x"); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("SubmitAnswer err = %v, want ErrSessionTerminal", err)
	}
	if _, err := f.svc.AdvanceQuestion(ctx, session.ID); !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("AdvanceQuestion err = %v, want ErrSessionTerminal", err)
	}

	after := f.store.mustGet(session.ID)
	if after.CurrentIndex != before.CurrentIndex || after.Draft != before.Draft || after.Answers[0] != before.Answers[0] {
		t.Error("terminal session must be immutable")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	f := newSessionFixture(t)
	if _, err := f.svc.GetSession(context.Background(), newUUID(t)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
