package app

import (
	"context"
	"encoding/json"
)

// Topic names the table a change event belongs to.
type Topic string

const (
	TopicQuizzes      Topic = "quizzes"
	TopicParticipants Topic = "participants"
	TopicAnswers      Topic = "answers"
)

// Change is one committed mutation fanned out to subscribers. Old and New
// are row snapshots; either may be empty (insert, delete, or a bulk update
// that only signals "re-fetch"). Delivery is at-least-once and unordered
// across rows; consumers reconcile by re-reading current state.
type Change struct {
	Topic  Topic           `json:"topic"`
	QuizID string          `json:"quizId"`
	Old    json.RawMessage `json:"old,omitempty"`
	New    json.RawMessage `json:"new,omitempty"`
}

// NewChange snapshots old/new values into a Change. Nil values are omitted.
func NewChange(topic Topic, quizID string, oldVal, newVal any) Change {
	c := Change{Topic: topic, QuizID: quizID}
	if oldVal != nil {
		c.Old, _ = json.Marshal(oldVal)
	}
	if newVal != nil {
		c.New, _ = json.Marshal(newVal)
	}
	return c
}

// DecodeNew unmarshals the new-row snapshot into v.
func (c Change) DecodeNew(v any) error {
	return json.Unmarshal(c.New, v)
}

// EventBus is the synchronization channel between the admin's mutations and
// every subscribed client view.
type EventBus interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe delivers changes for one (topic, quiz) pair. The returned
	// cancel is idempotent and must be called on every exit path.
	Subscribe(ctx context.Context, topic Topic, quizID string) (<-chan Change, func(), error)
}
