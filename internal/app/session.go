package app

import (
	"context"

	"live-quiz-service/internal/domain"
)

// StartQuiz transitions waiting -> playing, resets the question index and
// stamps both the quiz and the first question start. Participants are bulk
// moved to playing as a side effect.
func (s *Service) StartQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status != domain.QuizWaiting {
		return domain.Quiz{}, domain.Conflictf("cannot start quiz in status %q", quiz.Status)
	}

	now := s.now()
	updated := quiz
	updated.Status = domain.QuizPlaying
	if updated.StartedAt == nil {
		// First start. Resuming a paused quiz keeps its question index.
		updated.CurrentQuestionIndex = 0
		updated.StartedAt = &now
	}
	updated.QuestionStartedAt = &now

	stored, err := s.writeQuizState(ctx, updated)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.publish(ctx, TopicQuizzes, quiz.ID, quiz, stored)
	s.bulkSetStatus(ctx, quiz.ID, domain.ParticipantPlaying, now)
	return stored, nil
}

// AdvanceQuiz moves the current question index by delta (+1 or -1), clamped
// to the question range. Advancing past the last question completes the quiz
// instead of writing an out-of-range index.
func (s *Service) AdvanceQuiz(ctx context.Context, quizID string, delta int) (domain.Quiz, error) {
	if delta != 1 && delta != -1 {
		return domain.Quiz{}, domain.Validationf("advance delta must be +1 or -1")
	}
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status != domain.QuizPlaying {
		return domain.Quiz{}, domain.Conflictf("cannot advance quiz in status %q", quiz.Status)
	}
	questions, err := s.questions.Questions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	next := quiz.CurrentQuestionIndex + delta
	if next >= len(questions) {
		return s.CompleteQuiz(ctx, quizID)
	}
	if next < 0 {
		next = 0
	}
	if next == quiz.CurrentQuestionIndex {
		return quiz, nil
	}

	now := s.now()
	updated := quiz
	updated.CurrentQuestionIndex = next
	updated.QuestionStartedAt = &now

	stored, err := s.writeQuizState(ctx, updated)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.publish(ctx, TopicQuizzes, quiz.ID, quiz, stored)
	return stored, nil
}

// PauseQuiz returns a playing quiz to the waiting state without touching the
// question index.
func (s *Service) PauseQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status != domain.QuizPlaying {
		return domain.Quiz{}, domain.Conflictf("cannot pause quiz in status %q", quiz.Status)
	}

	updated := quiz
	updated.Status = domain.QuizWaiting

	stored, err := s.writeQuizState(ctx, updated)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.publish(ctx, TopicQuizzes, quiz.ID, quiz, stored)
	return stored, nil
}

// CompleteQuiz terminally ends the quiz and bulk-completes its participants.
// Any further transition attempt fails with a conflict.
func (s *Service) CompleteQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status == domain.QuizCompleted {
		return domain.Quiz{}, domain.Conflictf("quiz has already completed")
	}

	now := s.now()
	updated := quiz
	updated.Status = domain.QuizCompleted

	stored, err := s.writeQuizState(ctx, updated)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.publish(ctx, TopicQuizzes, quiz.ID, quiz, stored)
	s.bulkSetStatus(ctx, quiz.ID, domain.ParticipantCompleted, now)
	return stored, nil
}

// writeQuizState performs the versioned write with the transient-retry
// budget. A version conflict is not retried: it means another admin acted,
// and the caller must re-read before deciding again.
func (s *Service) writeQuizState(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	var stored domain.Quiz
	err := s.withRetry(ctx, func() error {
		var err error
		stored, err = s.quizzes.UpdateQuizState(ctx, quiz)
		return err
	})
	return stored, err
}
