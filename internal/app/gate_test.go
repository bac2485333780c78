package app_test

import (
	"context"
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func TestCheckAccessCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.createQuiz(t, twoQuestionDraft())

	found, err := env.service.CheckAccessCode(ctx, " "+quiz.AccessCode+" ")
	if err != nil {
		t.Fatalf("check code: %v", err)
	}
	if found.ID != quiz.ID {
		t.Fatalf("resolved wrong quiz: %s", found.ID)
	}

	if _, err := env.service.CheckAccessCode(ctx, ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty code, got %v", err)
	}
	if _, err := env.service.CheckAccessCode(ctx, "12ab56"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for malformed code, got %v", err)
	}

	unknown := "000000"
	if unknown == quiz.AccessCode {
		unknown = "000001"
	}
	if _, err := env.service.CheckAccessCode(ctx, unknown); !domain.IsNotFound(err) {
		t.Fatalf("expected not found for unknown code, got %v", err)
	}
}

func TestCheckAccessCodeRejectsCompletedQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.createQuiz(t, twoQuestionDraft())

	if _, err := env.service.CompleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("complete quiz: %v", err)
	}
	if _, err := env.service.CheckAccessCode(ctx, quiz.AccessCode); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for completed quiz, got %v", err)
	}
}

func TestJoinQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.createQuiz(t, twoQuestionDraft())

	joined, participant, err := env.service.JoinQuiz(ctx, quiz.AccessCode, "  Alice  ", "alice@example.com")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.ID != quiz.ID {
		t.Fatalf("joined wrong quiz")
	}
	if participant.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", participant.Name)
	}
	if participant.Status != domain.ParticipantWaiting {
		t.Fatalf("expected waiting participant, got %s", participant.Status)
	}
	if participant.ID == "" {
		t.Fatalf("expected participant id")
	}

	if _, _, err := env.service.JoinQuiz(ctx, quiz.AccessCode, "   ", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestLeaveOnlyFromLobby(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.createQuiz(t, twoQuestionDraft())
	participant := env.join(t, quiz.AccessCode, "Alice")

	stayer := env.join(t, quiz.AccessCode, "Bob")

	if err := env.service.Leave(ctx, participant.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	roster, err := env.service.Roster(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 || roster[0].ID != stayer.ID {
		t.Fatalf("expected only Bob on the roster, got %d entries", len(roster))
	}

	if _, err := env.service.StartQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.service.Leave(ctx, stayer.ID); !domain.IsConflict(err) {
		t.Fatalf("expected conflict leaving a running quiz, got %v", err)
	}
}

func TestRosterOrderedByJoinTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := env.createQuiz(t, twoQuestionDraft())

	alice := env.join(t, quiz.AccessCode, "Alice")
	env.clock.Advance(time.Second)
	bob := env.join(t, quiz.AccessCode, "Bob")

	roster, err := env.service.Roster(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 2 || roster[0].ID != alice.ID || roster[1].ID != bob.ID {
		t.Fatalf("expected join order Alice, Bob")
	}
}
