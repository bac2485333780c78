package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
	redisinfra "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	service, pool, err := buildService(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	wsHandler := transport.NewWSHandler(service)
	adminHandler := transport.NewAdminHandler(service, cfg.Admin.Token)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/admin/ws", adminHandler.ServeAdminWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting live quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService wires stores, cache and event bus from config. With no
// Postgres URL everything runs in memory and a demo quiz is seeded so the
// service is usable out of the box.
func buildService(ctx context.Context, cfg config.Config, redisClient *redis.Client) (*app.Service, *pgxpool.Pool, error) {
	questionTTL := config.TTLDuration(cfg.Quiz.QuestionTTL, 10*time.Minute)
	retryAttempts := cfg.Retry.Attempts
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	retryBackoff := config.TTLDuration(cfg.Retry.Backoff, 100*time.Millisecond)

	var bus app.EventBus = memory.NewBus()
	if redisClient != nil {
		bus = redisinfra.NewBus(redisClient)
	}

	if cfg.Postgres.URL == "" {
		store := memory.NewStore()
		questions := memory.NewQuestionCache(store, questionTTL)
		service := app.NewService(store, store, store, questions, bus,
			app.WithRetry(retryAttempts, retryBackoff))
		seedDemoQuiz(ctx, service)
		return service, nil, nil
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	store := pgstore.NewStore(pool)

	var questions app.QuestionSource = memory.NewQuestionCache(store, questionTTL)
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, store, questionTTL)
	}
	service := app.NewService(store, store, store, questions, bus,
		app.WithRetry(retryAttempts, retryBackoff))
	return service, pool, nil
}

func seedDemoQuiz(ctx context.Context, service *app.Service) {
	quiz, err := service.CreateQuiz(ctx, demoQuizDraft())
	if err != nil {
		log.Printf("seed demo quiz: %v", err)
		return
	}
	log.Printf("seeded demo quiz %q with access code %s", quiz.Title, quiz.AccessCode)
}
