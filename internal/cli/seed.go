package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
)

// NewSeedCmd creates the demo quiz in Postgres and prints its access code.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo quiz and print its access code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := pgstore.NewStore(pool)
	questions := memory.NewQuestionCache(store, time.Minute)
	service := app.NewService(store, store, store, questions, memory.NewBus())

	quiz, err := service.CreateQuiz(ctx, demoQuizDraft())
	if err != nil {
		return err
	}
	log.Printf("created quiz %q with access code %s", quiz.Title, quiz.AccessCode)
	return nil
}

// demoQuizDraft covers every question variant; handy for manual testing.
func demoQuizDraft() app.QuizDraft {
	return app.QuizDraft{
		Title:                "General Knowledge Warm-up",
		Description:          "A short demo quiz",
		QuestionTimeLimitSec: 30,
		PassingScore:         50,
		ShowResults:          true,
		Questions: []app.QuestionDraft{
			{
				Prompt:        "What is 2 + 2?",
				Type:          domain.QuestionMCQ,
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: "4",
				Points:        1,
			},
			{
				Prompt:        "The Pacific is the largest ocean on Earth.",
				Type:          domain.QuestionTrueFalse,
				CorrectAnswer: "True",
				Points:        1,
			},
			{
				Prompt:        "Which planet is known as the red planet?",
				Type:          domain.QuestionShortAnswer,
				CorrectAnswer: "Mars",
				Points:        2,
			},
		},
	}
}
