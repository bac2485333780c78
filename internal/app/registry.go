package app

import (
	"context"
	"log"
	"time"

	"live-quiz-service/internal/domain"
)

// Roster lists a quiz's participants ordered by join time.
func (s *Service) Roster(ctx context.Context, quizID string) ([]domain.Participant, error) {
	return s.participants.ListParticipants(ctx, quizID)
}

// Participant resolves a single registry entry.
func (s *Service) Participant(ctx context.Context, participantID string) (domain.Participant, error) {
	return s.participants.ParticipantByID(ctx, participantID)
}

// Leave removes a participant from the lobby. Once the quiz is underway the
// row is part of the results and can no longer be withdrawn.
func (s *Service) Leave(ctx context.Context, participantID string) error {
	participant, err := s.participants.ParticipantByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.Status != domain.ParticipantWaiting {
		return domain.Conflictf("cannot leave a quiz that is underway")
	}
	if err := s.participants.DeleteParticipant(ctx, participantID); err != nil {
		return err
	}
	s.publish(ctx, TopicParticipants, participant.QuizID, participant, nil)
	return nil
}

// bulkSetStatus transitions every participant of a quiz. Best effort and not
// atomic with the quiz write that triggers it; a failure is logged and the
// admin's transition stands.
func (s *Service) bulkSetStatus(ctx context.Context, quizID string, status domain.ParticipantStatus, at time.Time) {
	if err := s.participants.SetParticipantsStatus(ctx, quizID, status, at); err != nil {
		log.Printf("bulk set participants of quiz %s to %s: %v", quizID, status, err)
		return
	}
	// Row snapshots are omitted for bulk updates; consumers re-fetch the roster.
	s.publish(ctx, TopicParticipants, quizID, nil, nil)
}
