package domain

import (
	"fmt"
	"strings"
)

// QuestionType tags the question variant. Each variant has its own grading
// rule; an unknown tag is an error, not a silent zero.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionShortAnswer QuestionType = "short_answer"
)

// Question belongs to exactly one quiz and is immutable after authoring.
type Question struct {
	ID            string       `json:"id"`
	QuizID        string       `json:"quizId"`
	Prompt        string       `json:"prompt"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
	Points        int          `json:"points"` // defaults to 1 if zero
	Difficulty    string       `json:"difficulty,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	TimeLimitSec  int          `json:"timeLimitSec,omitempty"`
	OrderIndex    int          `json:"orderIndex"`
}

// PointValue returns the points awarded for a correct answer.
func (q Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

// Validate checks the variant-specific authoring invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return Validationf("question prompt is required")
	}
	switch q.Type {
	case QuestionMCQ:
		if len(q.Options) == 0 {
			return Validationf("mcq question needs at least one option")
		}
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				return nil
			}
		}
		return Validationf("mcq options must contain the correct answer")
	case QuestionTrueFalse:
		if q.CorrectAnswer != "True" && q.CorrectAnswer != "False" {
			return Validationf("true/false answer must be %q or %q", "True", "False")
		}
		return nil
	case QuestionShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return Validationf("short answer question needs a correct answer")
		}
		return nil
	default:
		return Validationf("unknown question type %q", q.Type)
	}
}

// Graded is the outcome of grading one submission.
type Graded struct {
	Correct bool
	Points  int
}

// Grade scores a submitted value against the question. Dispatch is exhaustive
// over the variant tag.
func (q Question) Grade(value string) (Graded, error) {
	var correct bool
	switch q.Type {
	case QuestionMCQ:
		correct = gradeChoice(q, value)
	case QuestionTrueFalse:
		correct = gradeTrueFalse(q, value)
	case QuestionShortAnswer:
		correct = gradeShortAnswer(q, value)
	default:
		return Graded{}, fmt.Errorf("grade question %s: unknown type %q", q.ID, q.Type)
	}
	if !correct {
		return Graded{}, nil
	}
	return Graded{Correct: true, Points: q.PointValue()}, nil
}

// MCQ answers must match an option verbatim.
func gradeChoice(q Question, value string) bool {
	return value != "" && value == q.CorrectAnswer
}

func gradeTrueFalse(q Question, value string) bool {
	return value == q.CorrectAnswer
}

// Short answers tolerate case and surrounding whitespace.
func gradeShortAnswer(q Question, value string) bool {
	submitted := strings.TrimSpace(value)
	if submitted == "" {
		return false
	}
	return strings.EqualFold(submitted, strings.TrimSpace(q.CorrectAnswer))
}
