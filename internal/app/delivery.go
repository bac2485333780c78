package app

import (
	"context"

	"live-quiz-service/internal/domain"
)

// CurrentQuestion resolves the question at the quiz's current index along
// with the fresh quiz record and the total question count.
func (s *Service) CurrentQuestion(ctx context.Context, quizID string) (domain.Question, domain.Quiz, int, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Question{}, domain.Quiz{}, 0, err
	}
	questions, err := s.questions.Questions(ctx, quizID)
	if err != nil {
		return domain.Question{}, domain.Quiz{}, 0, err
	}
	if quiz.CurrentQuestionIndex < 0 || quiz.CurrentQuestionIndex >= len(questions) {
		return domain.Question{}, domain.Quiz{}, 0, domain.ErrQuestionNotFound
	}
	return questions[quiz.CurrentQuestionIndex], quiz, len(questions), nil
}
