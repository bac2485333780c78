package app_test

import (
	"context"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// startedQuiz creates a two-question quiz with one joined participant and
// starts it, returning the current question.
func startedQuiz(t *testing.T, env *testEnv, draft app.QuizDraft) (domain.Quiz, domain.Participant, domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz := env.createQuiz(t, draft)
	participant := env.join(t, quiz.AccessCode, "Alice")
	started, err := env.service.StartQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	question, _, _, err := env.service.CurrentQuestion(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("current question: %v", err)
	}
	return started, participant, question
}

func TestSubmitAnswerGradesAndStamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, participant, question := startedQuiz(t, env, twoQuestionDraft())

	env.clock.Advance(7 * time.Second)
	answer, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !answer.Correct || answer.Points != 1 {
		t.Fatalf("expected correct answer worth 1 point, got %+v", answer)
	}
	if answer.TimeTakenSec != 7 {
		t.Fatalf("expected 7s taken, got %d", answer.TimeTakenSec)
	}
	if answer.ParticipantID != participant.ID || answer.QuestionID != question.ID {
		t.Fatalf("answer not linked to participant and question")
	}
}

func TestSubmitAnswerRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, participant, question := startedQuiz(t, env, twoQuestionDraft())

	if _, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Lyon")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate answer, got %v", err)
	}
}

func TestSubmitAnswerRejectsStaleQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz, participant, question := startedQuiz(t, env, twoQuestionDraft())

	if _, err := env.service.AdvanceQuiz(ctx, quiz.ID, 1); err != nil {
		t.Fatalf("advance: %v", err)
	}
	_, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict for stale question, got %v", err)
	}
}

func TestSubmitAnswerRejectsAfterQuestionDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := twoQuestionDraft()
	draft.QuestionTimeLimitSec = 30
	_, participant, question := startedQuiz(t, env, draft)

	env.clock.Advance(31 * time.Second)
	_, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict past question deadline, got %v", err)
	}
}

func TestSubmitAnswerRejectsAfterQuizDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := twoQuestionDraft()
	draft.TimeLimitMinutes = 1
	_, participant, question := startedQuiz(t, env, draft)

	env.clock.Advance(61 * time.Second)
	_, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict past quiz deadline, got %v", err)
	}
}

func TestSubmitAnswerRequiresPlayingQuiz(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz, participant, question := startedQuiz(t, env, twoQuestionDraft())

	if _, err := env.service.PauseQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict while paused, got %v", err)
	}
}

func TestTimeoutAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, participant, question := startedQuiz(t, env, twoQuestionDraft())

	answer, err := env.service.TimeoutAnswer(ctx, participant.ID, question.ID)
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if answer.Correct || answer.Points != 0 || answer.Value != "" {
		t.Fatalf("expected empty incorrect answer, got %+v", answer)
	}

	// Racing a timeout against an existing answer is a no-op.
	if _, err := env.service.TimeoutAnswer(ctx, participant.ID, question.ID); err != nil {
		t.Fatalf("expected idempotent timeout, got %v", err)
	}
}

func TestFinishQuizTalliesScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz, participant, question := startedQuiz(t, env, twoQuestionDraft())

	if _, err := env.service.SubmitAnswer(ctx, participant.ID, question.ID, "Paris"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.service.AdvanceQuiz(ctx, quiz.ID, 1); err != nil {
		t.Fatalf("advance: %v", err)
	}
	second, _, _, err := env.service.CurrentQuestion(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("current question: %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, participant.ID, second.ID, "False"); err != nil {
		t.Fatalf("submit second: %v", err)
	}

	finished, err := env.service.FinishQuiz(ctx, participant.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Status != domain.ParticipantCompleted {
		t.Fatalf("expected completed participant, got %s", finished.Status)
	}
	if finished.Score != 1 || finished.MaxScore != 2 {
		t.Fatalf("expected score 1/2, got %d/%d", finished.Score, finished.MaxScore)
	}
	if finished.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}

	if _, err := env.service.FinishQuiz(ctx, participant.ID); !domain.IsConflict(err) {
		t.Fatalf("expected conflict finishing twice, got %v", err)
	}

	// A submitted participant gets no further answers in.
	if _, err := env.service.SubmitAnswer(ctx, participant.ID, second.ID, "True"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict submitting after finish, got %v", err)
	}
}
