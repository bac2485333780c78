package app

import (
	"context"
	"time"

	"live-quiz-service/internal/domain"
)

// QuizStore persists quiz session records and their question batches.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error
	QuizByID(ctx context.Context, id string) (domain.Quiz, error)
	QuizByCode(ctx context.Context, code string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// UpdateQuizState writes status/index/timestamps guarded by quiz.Version
	// and returns the stored record with the bumped version. A stale version
	// yields domain.ErrVersionConflict.
	UpdateQuizState(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	Questions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// ParticipantStore persists the participant registry for each quiz.
type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p domain.Participant) error
	ParticipantByID(ctx context.Context, id string) (domain.Participant, error)
	// ListParticipants orders by join time ascending.
	ListParticipants(ctx context.Context, quizID string) ([]domain.Participant, error)
	UpdateParticipant(ctx context.Context, p domain.Participant) error
	DeleteParticipant(ctx context.Context, id string) error
	// SetParticipantsStatus transitions every participant of a quiz. Not
	// atomic with any quiz write; partial failure is tolerated by callers.
	SetParticipantsStatus(ctx context.Context, quizID string, status domain.ParticipantStatus, at time.Time) error
}

// AnswerStore persists graded answers, one per (participant, question).
type AnswerStore interface {
	// CreateAnswer returns domain.ErrAlreadyAnswered when the pair exists.
	CreateAnswer(ctx context.Context, a domain.Answer) error
	ListAnswers(ctx context.Context, quizID string) ([]domain.Answer, error)
	ListParticipantAnswers(ctx context.Context, participantID string) ([]domain.Answer, error)
}

// QuestionSource resolves a quiz's ordered question list. Infra layers wrap
// the store with a TTL cache since questions are immutable after authoring.
type QuestionSource interface {
	Questions(ctx context.Context, quizID string) ([]domain.Question, error)
}
