package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/app"
)

// Bus is an in-process event bus for single-instance deployments. Each
// (topic, quiz) pair has its own subscriber set.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan app.Change]struct{}
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]map[chan app.Change]struct{})}
}

func key(topic app.Topic, quizID string) string {
	return string(topic) + "/" + quizID
}

func (b *Bus) Publish(_ context.Context, change app.Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers[key(change.Topic, change.QuizID)] {
		select {
		case ch <- change:
		default:
			// Drop the oldest pending event rather than block the publisher;
			// consumers reconcile by re-reading current state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, topic app.Topic, quizID string) (<-chan app.Change, func(), error) {
	ch := make(chan app.Change, 8)
	k := key(topic, quizID)

	b.mu.Lock()
	if b.subscribers[k] == nil {
		b.subscribers[k] = make(map[chan app.Change]struct{})
	}
	b.subscribers[k][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subscribers[k]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subscribers, k)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
