package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Store is an in-memory implementation of the app store interfaces, used for
// tests and for running the service without Postgres.
type Store struct {
	mu           sync.RWMutex
	quizzes      map[string]domain.Quiz
	codes        map[string]string // access code -> quiz id
	questions    map[string][]domain.Question
	participants map[string]domain.Participant
	answers      map[string]domain.Answer
	answered     map[string]string // participantID+"/"+questionID -> answer id
}

func NewStore() *Store {
	return &Store{
		quizzes:      make(map[string]domain.Quiz),
		codes:        make(map[string]string),
		questions:    make(map[string][]domain.Question),
		participants: make(map[string]domain.Participant),
		answers:      make(map[string]domain.Answer),
		answered:     make(map[string]string),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[quiz.AccessCode]; ok {
		return domain.Conflictf("access code %s already in use", quiz.AccessCode)
	}
	s.quizzes[quiz.ID] = quiz
	s.codes[quiz.AccessCode] = quiz.ID
	ordered := append([]domain.Question(nil), questions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})
	s.questions[quiz.ID] = ordered
	return nil
}

func (s *Store) QuizByID(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) QuizByCode(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes[id], nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateQuizState(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if current.Version != quiz.Version {
		return domain.Quiz{}, domain.ErrVersionConflict
	}
	quiz.Version++
	quiz.UpdatedAt = time.Now()
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *Store) Questions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions, ok := s.questions[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return append([]domain.Question(nil), questions...), nil
}

func (s *Store) CreateParticipant(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
	return nil
}

func (s *Store) ParticipantByID(_ context.Context, id string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (s *Store) ListParticipants(_ context.Context, quizID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, 0)
	for _, p := range s.participants {
		if p.QuizID == quizID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s *Store) UpdateParticipant(_ context.Context, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; !ok {
		return domain.ErrParticipantNotFound
	}
	s.participants[p.ID] = p
	return nil
}

func (s *Store) DeleteParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, id)
	return nil
}

func (s *Store) SetParticipantsStatus(_ context.Context, quizID string, status domain.ParticipantStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.participants {
		if p.QuizID != quizID {
			continue
		}
		p.Status = status
		switch status {
		case domain.ParticipantPlaying:
			if p.StartedAt == nil {
				t := at
				p.StartedAt = &t
			}
		case domain.ParticipantCompleted:
			if p.CompletedAt == nil {
				t := at
				p.CompletedAt = &t
			}
		}
		s.participants[id] = p
	}
	return nil
}

func (s *Store) CreateAnswer(_ context.Context, a domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.ParticipantID + "/" + a.QuestionID
	if _, ok := s.answered[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	s.answers[a.ID] = a
	s.answered[key] = a.ID
	return nil
}

func (s *Store) ListAnswers(_ context.Context, quizID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Answer, 0)
	for _, a := range s.answers {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *Store) ListParticipantAnswers(_ context.Context, participantID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Answer, 0)
	for _, a := range s.answers {
		if a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}
