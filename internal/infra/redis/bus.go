package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
)

// Bus fans change events out through Redis pub/sub so every service instance
// sees mutations committed by any other. Channels are keyed per (topic, quiz)
// to keep subscriptions narrow.
type Bus struct {
	client *redis.Client
}

func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

func channel(topic app.Topic, quizID string) string {
	return "quiz:events:" + string(topic) + ":" + quizID
}

func (b *Bus) Publish(ctx context.Context, change app.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel(change.Topic, change.QuizID), payload).Err()
}

func (b *Bus) Subscribe(ctx context.Context, topic app.Topic, quizID string) (<-chan app.Change, func(), error) {
	sub := b.client.Subscribe(ctx, channel(topic, quizID))
	// Force the subscription onto the wire before the caller relies on it.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan app.Change, 8)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var change app.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Printf("decode change event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- change:
			default:
				// Drop the oldest pending event rather than block the reader.
				select {
				case <-out:
				default:
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
