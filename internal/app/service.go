package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"live-quiz-service/internal/domain"
)

// Service contains the quiz use cases: access gate, participant registry,
// session state machine, answer capture, and results aggregation.
type Service struct {
	quizzes      QuizStore
	participants ParticipantStore
	answers      AnswerStore
	questions    QuestionSource
	bus          EventBus

	now           func() time.Time
	rnd           *rand.Rand
	retryAttempts int
	retryBackoff  time.Duration
}

// Option tweaks service construction.
type Option func(*Service)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetry bounds the retry budget for transient store failures.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.retryAttempts = attempts
		s.retryBackoff = backoff
	}
}

func NewService(quizzes QuizStore, participants ParticipantStore, answers AnswerStore, questions QuestionSource, bus EventBus, opts ...Option) *Service {
	s := &Service{
		quizzes:       quizzes,
		participants:  participants,
		answers:       answers,
		questions:     questions,
		bus:           bus,
		now:           time.Now,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		retryAttempts: 3,
		retryBackoff:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe exposes the synchronization channel to transports.
func (s *Service) Subscribe(ctx context.Context, topic Topic, quizID string) (<-chan Change, func(), error) {
	return s.bus.Subscribe(ctx, topic, quizID)
}

// publish fans out a committed mutation. Best effort: consumers reconcile by
// re-reading state, so a lost event is not fatal.
func (s *Service) publish(ctx context.Context, topic Topic, quizID string, oldVal, newVal any) {
	if err := s.bus.Publish(ctx, NewChange(topic, quizID, oldVal, newVal)); err != nil {
		log.Printf("publish %s change for quiz %s: %v", topic, quizID, err)
	}
}

// withRetry runs fn, retrying transient failures with fixed backoff up to the
// configured attempt budget. Other errors surface immediately.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if err = fn(); err == nil || !domain.IsTransient(err) {
			return err
		}
		select {
		case <-time.After(s.retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
