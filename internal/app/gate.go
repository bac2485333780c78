package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// CheckAccessCode validates a candidate code and resolves the quiz it opens.
// Read-only: the participant row is only created once a name is entered.
func (s *Service) CheckAccessCode(ctx context.Context, code string) (domain.Quiz, error) {
	code = domain.NormalizeAccessCode(code)
	if code == "" {
		return domain.Quiz{}, domain.Validationf("access code is required")
	}
	if !domain.ValidAccessCode(code) {
		return domain.Quiz{}, domain.Validationf("access code must be %d digits", domain.AccessCodeLength)
	}
	quiz, err := s.quizzes.QuizByCode(ctx, code)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.Status == domain.QuizCompleted {
		return domain.Quiz{}, domain.Conflictf("quiz %q has already completed", quiz.Title)
	}
	return quiz, nil
}

// JoinQuiz runs the full gate: code check, then participant creation in the
// waiting state. The new roster entry is fanned out to lobby and admin views.
func (s *Service) JoinQuiz(ctx context.Context, code, name, email string) (domain.Quiz, domain.Participant, error) {
	quiz, err := s.CheckAccessCode(ctx, code)
	if err != nil {
		return domain.Quiz{}, domain.Participant{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Quiz{}, domain.Participant{}, domain.Validationf("name is required")
	}

	participant := domain.Participant{
		ID:       uuid.NewString(),
		QuizID:   quiz.ID,
		Name:     name,
		Email:    strings.TrimSpace(email),
		Status:   domain.ParticipantWaiting,
		JoinedAt: s.now(),
	}
	if err := s.participants.CreateParticipant(ctx, participant); err != nil {
		return domain.Quiz{}, domain.Participant{}, err
	}
	s.publish(ctx, TopicParticipants, quiz.ID, nil, participant)
	return quiz, participant, nil
}
