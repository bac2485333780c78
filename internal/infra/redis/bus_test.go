package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBusPublishSubscribe(t *testing.T) {
	client := testClient(t)
	bus := NewBus(client)
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx, app.TopicQuizzes, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	quiz := domain.Quiz{ID: "quiz-1", Status: domain.QuizPlaying}
	if err := bus.Publish(ctx, app.NewChange(app.TopicQuizzes, "quiz-1", nil, quiz)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case change := <-ch:
		if change.Topic != app.TopicQuizzes || change.QuizID != "quiz-1" {
			t.Fatalf("unexpected change %+v", change)
		}
		var got domain.Quiz
		if err := change.DecodeNew(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Status != domain.QuizPlaying {
			t.Fatalf("unexpected payload %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected delivery")
	}
}

func TestBusScopesByQuiz(t *testing.T) {
	client := testClient(t)
	bus := NewBus(client)
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx, app.TopicParticipants, "quiz-2")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := bus.Publish(ctx, app.NewChange(app.TopicParticipants, "quiz-1", nil, "x")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case change := <-ch:
		t.Fatalf("unexpected delivery %+v", change)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	client := testClient(t)
	bus := NewBus(client)
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx, app.TopicAnswers, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
