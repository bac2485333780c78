package domain

import (
	"strings"
	"time"
)

// QuizStatus is the lifecycle state of a quiz session.
type QuizStatus string

const (
	QuizWaiting   QuizStatus = "waiting"
	QuizPlaying   QuizStatus = "playing"
	QuizCompleted QuizStatus = "completed"
)

// ParticipantStatus mirrors QuizStatus but only ever moves forward.
type ParticipantStatus string

const (
	ParticipantWaiting   ParticipantStatus = "waiting"
	ParticipantPlaying   ParticipantStatus = "playing"
	ParticipantCompleted ParticipantStatus = "completed"
)

// AccessCodeLength is the fixed length of quiz access codes. Codes are
// numeric so an operator can read them aloud.
const AccessCodeLength = 6

// NormalizeAccessCode trims and upper-cases a candidate code.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidAccessCode reports whether code is exactly six ASCII digits.
func ValidAccessCode(code string) bool {
	if len(code) != AccessCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Quiz is the single authoritative session record per quiz. Status and
// CurrentQuestionIndex are only mutated through versioned writes.
type Quiz struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	AccessCode           string     `json:"accessCode"`
	Status               QuizStatus `json:"status"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	TimeLimitMinutes     int        `json:"timeLimitMinutes,omitempty"`
	QuestionTimeLimitSec int        `json:"questionTimeLimitSec,omitempty"`
	PassingScore         int        `json:"passingScore,omitempty"`
	ShowResults          bool       `json:"showResults"`
	AllowRetake          bool       `json:"allowRetake"`
	ShuffleQuestions     bool       `json:"shuffleQuestions"`
	Version              int64      `json:"version"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	QuestionStartedAt    *time.Time `json:"questionStartedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// QuestionDeadline returns the instant the current question stops accepting
// answers, or zero when the question is untimed. The per-question override
// wins over the quiz-wide default.
func (q Quiz) QuestionDeadline(question Question) time.Time {
	if q.QuestionStartedAt == nil {
		return time.Time{}
	}
	limit := question.TimeLimitSec
	if limit == 0 {
		limit = q.QuestionTimeLimitSec
	}
	if limit <= 0 {
		return time.Time{}
	}
	return q.QuestionStartedAt.Add(time.Duration(limit) * time.Second)
}

// Deadline returns the instant the whole quiz stops accepting answers, or
// zero when the quiz has no total time limit.
func (q Quiz) Deadline() time.Time {
	if q.StartedAt == nil || q.TimeLimitMinutes <= 0 {
		return time.Time{}
	}
	return q.StartedAt.Add(time.Duration(q.TimeLimitMinutes) * time.Minute)
}

// Participant belongs to exactly one quiz for the lifetime of a session.
type Participant struct {
	ID          string            `json:"id"`
	QuizID      string            `json:"quizId"`
	Name        string            `json:"name"`
	Email       string            `json:"email,omitempty"`
	Status      ParticipantStatus `json:"status"`
	Score       int               `json:"score"`
	MaxScore    int               `json:"maxScore"`
	JoinedAt    time.Time         `json:"joinedAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Answer records one graded submission. Correctness and points are computed
// by the service, never trusted from clients. At most one answer exists per
// (participant, question) pair.
type Answer struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quizId"`
	ParticipantID string    `json:"participantId"`
	QuestionID    string    `json:"questionId"`
	Value         string    `json:"value"`
	Correct       bool      `json:"correct"`
	Points        int       `json:"points"`
	TimeTakenSec  int       `json:"timeTakenSec,omitempty"`
	SubmittedAt   time.Time `json:"submittedAt"`
}
