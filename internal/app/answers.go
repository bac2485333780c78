package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// SubmitAnswer grades and persists one answer for the quiz's current
// question. The submitted value is graded server-side; duplicates and
// submissions past a deadline are rejected.
func (s *Service) SubmitAnswer(ctx context.Context, participantID, questionID, value string) (domain.Answer, error) {
	participant, quiz, question, err := s.activeQuestion(ctx, participantID, questionID)
	if err != nil {
		return domain.Answer{}, err
	}

	now := s.now()
	if deadline := quiz.Deadline(); !deadline.IsZero() && now.After(deadline) {
		return domain.Answer{}, domain.Conflictf("quiz time limit has elapsed")
	}
	if deadline := quiz.QuestionDeadline(question); !deadline.IsZero() && now.After(deadline) {
		return domain.Answer{}, domain.Conflictf("question time limit has elapsed")
	}

	return s.recordAnswer(ctx, participant, quiz, question, value)
}

// TimeoutAnswer persists the empty answer when a question's timer fires
// before the participant submitted. Idempotent: if an answer already exists
// for the pair (a manual submit raced the timer) the existing row stands.
func (s *Service) TimeoutAnswer(ctx context.Context, participantID, questionID string) (domain.Answer, error) {
	participant, quiz, question, err := s.activeQuestion(ctx, participantID, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	answer, err := s.recordAnswer(ctx, participant, quiz, question, "")
	if errors.Is(err, domain.ErrAlreadyAnswered) {
		return domain.Answer{}, nil
	}
	return answer, err
}

// FinishQuiz is the participant's own submission: their score is tallied from
// persisted answers and their status moves terminally to completed.
func (s *Service) FinishQuiz(ctx context.Context, participantID string) (domain.Participant, error) {
	participant, err := s.participants.ParticipantByID(ctx, participantID)
	if err != nil {
		return domain.Participant{}, err
	}
	if participant.Status == domain.ParticipantCompleted {
		return domain.Participant{}, domain.Conflictf("quiz already submitted")
	}

	questions, err := s.questions.Questions(ctx, participant.QuizID)
	if err != nil {
		return domain.Participant{}, err
	}
	answers, err := s.answers.ListParticipantAnswers(ctx, participantID)
	if err != nil {
		return domain.Participant{}, err
	}

	score := 0
	for _, a := range answers {
		score += a.Points
	}
	maxScore := 0
	for _, q := range questions {
		maxScore += q.PointValue()
	}

	now := s.now()
	old := participant
	participant.Status = domain.ParticipantCompleted
	participant.Score = score
	participant.MaxScore = maxScore
	participant.CompletedAt = &now
	if err := s.participants.UpdateParticipant(ctx, participant); err != nil {
		return domain.Participant{}, err
	}
	s.publish(ctx, TopicParticipants, participant.QuizID, old, participant)
	return participant, nil
}

// activeQuestion validates that questionID is the quiz's current question and
// that the quiz is accepting answers.
func (s *Service) activeQuestion(ctx context.Context, participantID, questionID string) (domain.Participant, domain.Quiz, domain.Question, error) {
	participant, err := s.participants.ParticipantByID(ctx, participantID)
	if err != nil {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, err
	}
	if participant.Status == domain.ParticipantCompleted {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, domain.Conflictf("quiz already submitted")
	}
	quiz, err := s.quizzes.QuizByID(ctx, participant.QuizID)
	if err != nil {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, err
	}
	if quiz.Status != domain.QuizPlaying {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, domain.Conflictf("quiz is not accepting answers in status %q", quiz.Status)
	}
	questions, err := s.questions.Questions(ctx, quiz.ID)
	if err != nil {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, err
	}
	if quiz.CurrentQuestionIndex < 0 || quiz.CurrentQuestionIndex >= len(questions) {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, domain.ErrQuestionNotFound
	}
	question := questions[quiz.CurrentQuestionIndex]
	if question.ID != questionID {
		return domain.Participant{}, domain.Quiz{}, domain.Question{}, domain.Conflictf("question is not the current question")
	}
	return participant, quiz, question, nil
}

func (s *Service) recordAnswer(ctx context.Context, participant domain.Participant, quiz domain.Quiz, question domain.Question, value string) (domain.Answer, error) {
	graded, err := question.Grade(value)
	if err != nil {
		return domain.Answer{}, err
	}

	now := s.now()
	timeTaken := 0
	if quiz.QuestionStartedAt != nil {
		timeTaken = int(now.Sub(*quiz.QuestionStartedAt).Seconds())
	}
	answer := domain.Answer{
		ID:            uuid.NewString(),
		QuizID:        quiz.ID,
		ParticipantID: participant.ID,
		QuestionID:    question.ID,
		Value:         value,
		Correct:       graded.Correct,
		Points:        graded.Points,
		TimeTakenSec:  timeTaken,
		SubmittedAt:   now,
	}
	if err := s.answers.CreateAnswer(ctx, answer); err != nil {
		return domain.Answer{}, err
	}
	s.publish(ctx, TopicAnswers, quiz.ID, nil, answer)
	return answer, nil
}
