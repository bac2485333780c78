package app

import (
	"context"
	"math"
	"sort"

	"live-quiz-service/internal/domain"
)

// ParticipantResult is one row of the admin's results table.
type ParticipantResult struct {
	Participant    domain.Participant `json:"participant"`
	CorrectAnswers int                `json:"correctAnswers"`
	TotalQuestions int                `json:"totalQuestions"`
	Percentage     int                `json:"percentage"`
	TimeUsedSec    *int               `json:"timeUsedSec,omitempty"`
}

// QuestionStat summarizes how one question was answered across participants.
type QuestionStat struct {
	Question    domain.Question `json:"question"`
	Answered    int             `json:"answered"`
	Correct     int             `json:"correct"`
	SuccessRate int             `json:"successRate"`
}

// ResultsSummary holds the headline numbers for a quiz.
type ResultsSummary struct {
	Participants   int  `json:"participants"`
	AverageScore   int  `json:"averageScore"`
	HighestScore   int  `json:"highestScore"`
	LowestScore    int  `json:"lowestScore"`
	AverageTimeSec *int `json:"averageTimeSec,omitempty"`
}

// QuizResults is the full post-hoc aggregation for a quiz.
type QuizResults struct {
	Quiz         domain.Quiz         `json:"quiz"`
	Participants []ParticipantResult `json:"participants"`
	Questions    []QuestionStat      `json:"questions"`
	Summary      ResultsSummary      `json:"summary"`
}

// Results computes per-participant and per-question statistics from the
// persisted answers. Pure read; no state is mutated.
func (s *Service) Results(ctx context.Context, quizID string) (QuizResults, error) {
	quiz, err := s.quizzes.QuizByID(ctx, quizID)
	if err != nil {
		return QuizResults{}, err
	}
	questions, err := s.questions.Questions(ctx, quizID)
	if err != nil {
		return QuizResults{}, err
	}
	participants, err := s.participants.ListParticipants(ctx, quizID)
	if err != nil {
		return QuizResults{}, err
	}
	answers, err := s.answers.ListAnswers(ctx, quizID)
	if err != nil {
		return QuizResults{}, err
	}

	byParticipant := make(map[string][]domain.Answer)
	byQuestion := make(map[string][]domain.Answer)
	for _, a := range answers {
		byParticipant[a.ParticipantID] = append(byParticipant[a.ParticipantID], a)
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	results := make([]ParticipantResult, 0, len(participants))
	for _, p := range participants {
		correct := 0
		for _, a := range byParticipant[p.ID] {
			if a.Correct {
				correct++
			}
		}
		pr := ParticipantResult{
			Participant:    p,
			CorrectAnswers: correct,
			TotalQuestions: len(questions),
			Percentage:     percentage(correct, len(questions)),
		}
		if p.StartedAt != nil && p.CompletedAt != nil {
			used := int(p.CompletedAt.Sub(*p.StartedAt).Seconds())
			pr.TimeUsedSec = &used
		}
		results = append(results, pr)
	}
	// Stable sort keeps the original fetch order for tied scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Percentage > results[j].Percentage
	})

	stats := make([]QuestionStat, 0, len(questions))
	for _, q := range questions {
		answered := byQuestion[q.ID]
		correct := 0
		for _, a := range answered {
			if a.Correct {
				correct++
			}
		}
		stats = append(stats, QuestionStat{
			Question:    q,
			Answered:    len(answered),
			Correct:     correct,
			SuccessRate: percentage(correct, len(answered)),
		})
	}

	return QuizResults{
		Quiz:         quiz,
		Participants: results,
		Questions:    stats,
		Summary:      summarize(results),
	}, nil
}

func summarize(results []ParticipantResult) ResultsSummary {
	summary := ResultsSummary{Participants: len(results)}
	if len(results) == 0 {
		return summary
	}

	total := 0
	summary.HighestScore = results[0].Percentage
	summary.LowestScore = results[0].Percentage
	timeTotal, timed := 0, 0
	for _, r := range results {
		total += r.Percentage
		if r.Percentage > summary.HighestScore {
			summary.HighestScore = r.Percentage
		}
		if r.Percentage < summary.LowestScore {
			summary.LowestScore = r.Percentage
		}
		if r.TimeUsedSec != nil {
			timeTotal += *r.TimeUsedSec
			timed++
		}
	}
	summary.AverageScore = int(math.Round(float64(total) / float64(len(results))))
	if timed > 0 {
		avg := int(math.Round(float64(timeTotal) / float64(timed)))
		summary.AverageTimeSec = &avg
	}
	return summary
}

func percentage(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
