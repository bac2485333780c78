package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// QuestionDraft is the authoring shape of one question.
type QuestionDraft struct {
	Prompt        string              `json:"prompt"`
	Type          domain.QuestionType `json:"type"`
	Options       []string            `json:"options,omitempty"`
	CorrectAnswer string              `json:"correctAnswer"`
	Points        int                 `json:"points,omitempty"`
	Difficulty    string              `json:"difficulty,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	TimeLimitSec  int                 `json:"timeLimitSec,omitempty"`
}

// QuizDraft is the authoring shape of a quiz with its question batch.
type QuizDraft struct {
	Title                string          `json:"title"`
	Description          string          `json:"description,omitempty"`
	TimeLimitMinutes     int             `json:"timeLimitMinutes,omitempty"`
	QuestionTimeLimitSec int             `json:"questionTimeLimitSec,omitempty"`
	PassingScore         int             `json:"passingScore,omitempty"`
	ShowResults          bool            `json:"showResults"`
	AllowRetake          bool            `json:"allowRetake"`
	ShuffleQuestions     bool            `json:"shuffleQuestions"`
	Questions            []QuestionDraft `json:"questions"`
}

const codeAttempts = 10

// CreateQuiz validates a draft, assigns a unique numeric access code and
// persists the quiz with its question batch in creation order.
func (s *Service) CreateQuiz(ctx context.Context, draft QuizDraft) (domain.Quiz, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return domain.Quiz{}, domain.Validationf("quiz title is required")
	}
	if len(draft.Questions) == 0 {
		return domain.Quiz{}, domain.Validationf("quiz needs at least one question")
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:                   uuid.NewString(),
		Title:                strings.TrimSpace(draft.Title),
		Description:          strings.TrimSpace(draft.Description),
		Status:               domain.QuizWaiting,
		TimeLimitMinutes:     draft.TimeLimitMinutes,
		QuestionTimeLimitSec: draft.QuestionTimeLimitSec,
		PassingScore:         draft.PassingScore,
		ShowResults:          draft.ShowResults,
		AllowRetake:          draft.AllowRetake,
		ShuffleQuestions:     draft.ShuffleQuestions,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	questions := make([]domain.Question, 0, len(draft.Questions))
	for i, qd := range draft.Questions {
		question := domain.Question{
			ID:            uuid.NewString(),
			QuizID:        quiz.ID,
			Prompt:        strings.TrimSpace(qd.Prompt),
			Type:          qd.Type,
			Options:       qd.Options,
			CorrectAnswer: qd.CorrectAnswer,
			Points:        qd.Points,
			Difficulty:    qd.Difficulty,
			Explanation:   qd.Explanation,
			TimeLimitSec:  qd.TimeLimitSec,
			OrderIndex:    i,
		}
		if err := question.Validate(); err != nil {
			return domain.Quiz{}, domain.Validationf("question %d: %v", i+1, err)
		}
		questions = append(questions, question)
	}

	code, err := s.newAccessCode(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.AccessCode = code

	if err := s.quizzes.CreateQuiz(ctx, quiz, questions); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// ListQuizzes returns every quiz for the admin dashboard.
func (s *Service) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// GetQuiz resolves a quiz with its ordered question list.
func (s *Service) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.questions.Questions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	return quiz, questions, nil
}

// newAccessCode draws random six-digit codes until one is free. Uniqueness is
// also enforced by the store, this loop just keeps collisions from surfacing
// as user-visible errors.
func (s *Service) newAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := fmt.Sprintf("%06d", s.rnd.Intn(1000000))
		_, err := s.quizzes.QuizByCode(ctx, code)
		if domain.IsNotFound(err) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", domain.Transientf(nil, "could not allocate a free access code")
}
