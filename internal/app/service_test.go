package app_test

import (
	"context"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

// testClock is a settable clock for deadline and timestamp assertions.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	service *app.Service
	store   *memory.Store
	clock   *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	clock := newTestClock()
	questions := memory.NewQuestionCache(store, 5*time.Minute)
	service := app.NewService(store, store, store, questions, memory.NewBus(),
		app.WithClock(clock.Now),
		app.WithRetry(2, time.Millisecond))
	return &testEnv{service: service, store: store, clock: clock}
}

func (e *testEnv) createQuiz(t *testing.T, draft app.QuizDraft) domain.Quiz {
	t.Helper()
	quiz, err := e.service.CreateQuiz(context.Background(), draft)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func (e *testEnv) join(t *testing.T, code, name string) domain.Participant {
	t.Helper()
	_, participant, err := e.service.JoinQuiz(context.Background(), code, name, "")
	if err != nil {
		t.Fatalf("join quiz: %v", err)
	}
	return participant
}

func twoQuestionDraft() app.QuizDraft {
	return app.QuizDraft{
		Title:        "Capitals",
		PassingScore: 50,
		ShowResults:  true,
		Questions: []app.QuestionDraft{
			{
				Prompt:        "Capital of France?",
				Type:          domain.QuestionMCQ,
				Options:       []string{"Paris", "Lyon"},
				CorrectAnswer: "Paris",
				Points:        1,
			},
			{
				Prompt:        "Berlin is the capital of Germany.",
				Type:          domain.QuestionTrueFalse,
				CorrectAnswer: "True",
				Points:        1,
			},
		},
	}
}

func TestCreateQuizAssignsAccessCode(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.createQuiz(t, twoQuestionDraft())

	if !domain.ValidAccessCode(quiz.AccessCode) {
		t.Fatalf("expected six-digit access code, got %q", quiz.AccessCode)
	}
	if quiz.Status != domain.QuizWaiting {
		t.Fatalf("expected new quiz in waiting, got %s", quiz.Status)
	}
	if quiz.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", quiz.Version)
	}

	_, questions, err := env.service.GetQuiz(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].OrderIndex != 0 || questions[1].OrderIndex != 1 {
		t.Fatalf("expected questions in authoring order")
	}
}

func TestCreateQuizRejectsInvalidDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateQuiz(ctx, app.QuizDraft{Title: " "})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	_, err = env.service.CreateQuiz(ctx, app.QuizDraft{Title: "Empty"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for zero questions, got %v", err)
	}

	draft := twoQuestionDraft()
	draft.Questions[0].CorrectAnswer = "Madrid"
	_, err = env.service.CreateQuiz(ctx, draft)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for answer outside options, got %v", err)
	}
}
