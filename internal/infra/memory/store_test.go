package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func seedQuiz(t *testing.T, store *Store) domain.Quiz {
	t.Helper()
	quiz := domain.Quiz{
		ID:         "quiz-1",
		Title:      "Test",
		AccessCode: "123456",
		Status:     domain.QuizWaiting,
		Version:    1,
		CreatedAt:  time.Now(),
	}
	questions := []domain.Question{
		{ID: "q-2", QuizID: quiz.ID, Prompt: "second", Type: domain.QuestionShortAnswer, CorrectAnswer: "b", OrderIndex: 1},
		{ID: "q-1", QuizID: quiz.ID, Prompt: "first", Type: domain.QuestionShortAnswer, CorrectAnswer: "a", OrderIndex: 0},
	}
	if err := store.CreateQuiz(context.Background(), quiz, questions); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func TestStoreQuizLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	quiz := seedQuiz(t, store)

	byID, err := store.QuizByID(ctx, quiz.ID)
	if err != nil || byID.ID != quiz.ID {
		t.Fatalf("by id: %v", err)
	}
	byCode, err := store.QuizByCode(ctx, quiz.AccessCode)
	if err != nil || byCode.ID != quiz.ID {
		t.Fatalf("by code: %v", err)
	}

	if _, err := store.QuizByID(ctx, "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := store.QuizByCode(ctx, "999999"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	dup := quiz
	dup.ID = "quiz-2"
	if err := store.CreateQuiz(ctx, dup, nil); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate access code, got %v", err)
	}
}

func TestStoreQuestionsOrdered(t *testing.T) {
	store := NewStore()
	quiz := seedQuiz(t, store)

	questions, err := store.Questions(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != "q-1" || questions[1].ID != "q-2" {
		t.Fatalf("expected order index ordering, got %+v", questions)
	}
}

func TestStoreVersionedUpdate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	quiz := seedQuiz(t, store)

	quiz.Status = domain.QuizPlaying
	updated, err := store.UpdateQuizState(ctx, quiz)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	// A writer holding the old version loses.
	stale := quiz
	stale.Status = domain.QuizCompleted
	if _, err := store.UpdateQuizState(ctx, stale); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	missing := quiz
	missing.ID = "nope"
	if _, err := store.UpdateQuizState(ctx, missing); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreParticipants(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	quiz := seedQuiz(t, store)

	base := time.Now()
	for i, name := range []string{"Alice", "Bob", "Cara"} {
		p := domain.Participant{
			ID:       name,
			QuizID:   quiz.ID,
			Name:     name,
			Status:   domain.ParticipantWaiting,
			JoinedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("create participant: %v", err)
		}
	}

	roster, err := store.ListParticipants(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(roster) != 3 || roster[0].Name != "Alice" || roster[2].Name != "Cara" {
		t.Fatalf("expected join ordering, got %+v", roster)
	}

	if err := store.SetParticipantsStatus(ctx, quiz.ID, domain.ParticipantPlaying, base); err != nil {
		t.Fatalf("bulk status: %v", err)
	}
	roster, _ = store.ListParticipants(ctx, quiz.ID)
	for _, p := range roster {
		if p.Status != domain.ParticipantPlaying || p.StartedAt == nil {
			t.Fatalf("expected playing with start time, got %+v", p)
		}
	}

	if err := store.DeleteParticipant(ctx, "Bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.ParticipantByID(ctx, "Bob"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected participant not found, got %v", err)
	}
}

func TestStoreAnswerUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	quiz := seedQuiz(t, store)

	answer := domain.Answer{
		ID:            "a-1",
		QuizID:        quiz.ID,
		ParticipantID: "p-1",
		QuestionID:    "q-1",
		Value:         "a",
		Correct:       true,
		Points:        1,
		SubmittedAt:   time.Now(),
	}
	if err := store.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("create answer: %v", err)
	}

	dup := answer
	dup.ID = "a-2"
	if err := store.CreateAnswer(ctx, dup); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	byQuiz, err := store.ListAnswers(ctx, quiz.ID)
	if err != nil || len(byQuiz) != 1 {
		t.Fatalf("expected one stored answer, got %d (%v)", len(byQuiz), err)
	}
	byParticipant, err := store.ListParticipantAnswers(ctx, "p-1")
	if err != nil || len(byParticipant) != 1 {
		t.Fatalf("expected one participant answer, got %d (%v)", len(byParticipant), err)
	}
}
