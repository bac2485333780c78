package http

import (
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// quizView is the participant-facing quiz snapshot. Version and timing
// internals stay server-side.
type quizView struct {
	ID                   string            `json:"id"`
	Title                string            `json:"title"`
	Description          string            `json:"description,omitempty"`
	Status               domain.QuizStatus `json:"status"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
}

func newQuizView(q domain.Quiz) quizView {
	return quizView{
		ID:                   q.ID,
		Title:                q.Title,
		Description:          q.Description,
		Status:               q.Status,
		CurrentQuestionIndex: q.CurrentQuestionIndex,
	}
}

// questionView strips the correct answer and explanation before a question
// reaches a participant.
type questionView struct {
	ID           string              `json:"id"`
	Prompt       string              `json:"prompt"`
	Type         domain.QuestionType `json:"type"`
	Options      []string            `json:"options,omitempty"`
	Points       int                 `json:"points"`
	Index        int                 `json:"index"`
	Total        int                 `json:"total"`
	RemainingSec int                 `json:"remainingSec,omitempty"`
}

func newQuestionView(q domain.Question, quiz domain.Quiz, total int, now time.Time) questionView {
	view := questionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Type:    q.Type,
		Options: q.Options,
		Points:  q.PointValue(),
		Index:   quiz.CurrentQuestionIndex,
		Total:   total,
	}
	if deadline := quiz.QuestionDeadline(q); !deadline.IsZero() {
		remaining := int(deadline.Sub(now).Seconds())
		if remaining < 1 {
			remaining = 1
		}
		view.RemainingSec = remaining
	}
	return view
}

type rosterEntry struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Status domain.ParticipantStatus `json:"status"`
}

func newRoster(participants []domain.Participant) []rosterEntry {
	entries := make([]rosterEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, rosterEntry{ID: p.ID, Name: p.Name, Status: p.Status})
	}
	return entries
}

type errorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func newErrorPayload(err error) errorPayload {
	payload := errorPayload{Message: err.Error()}
	if kind := domain.KindOf(err); kind != 0 {
		payload.Kind = kind.String()
	}
	return payload
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

func outbound(msgType string, payload any) outboundMessage[any] {
	return outboundMessage[any]{Type: msgType, Payload: payload}
}

func errorMessage(err error) outboundMessage[any] {
	return outbound("error", newErrorPayload(err))
}

// resultView is the personal result sent to a participant on submission.
type resultView struct {
	Score      int  `json:"score"`
	MaxScore   int  `json:"maxScore"`
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

func newResultView(p domain.Participant, quiz domain.Quiz) resultView {
	view := resultView{Score: p.Score, MaxScore: p.MaxScore}
	if p.MaxScore > 0 {
		view.Percentage = (p.Score*100 + p.MaxScore/2) / p.MaxScore
	}
	view.Passed = view.Percentage >= quiz.PassingScore
	return view
}

// decodeQuiz extracts the new quiz snapshot from a change event.
func decodeQuiz(change app.Change) (domain.Quiz, bool) {
	if len(change.New) == 0 {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := change.DecodeNew(&quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}
