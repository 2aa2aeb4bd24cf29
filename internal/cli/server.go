package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"material-quiz-service/internal/app"
	"material-quiz-service/internal/auth"
	"material-quiz-service/internal/config"
	"material-quiz-service/internal/domain"
	"material-quiz-service/internal/infra/memory"
	pginfra "material-quiz-service/internal/infra/postgres"
	redisinfra "material-quiz-service/internal/infra/redis"
	transport "material-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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

	finalPort := resolvePort(portFlag, os.Getenv("PORT"), cfg.Server.Port)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	guestTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.ContentLoader = memory.NewStaticContentLoader(sampleCatalog())
	if pool != nil {
		loader = pginfra.NewCatalogLoader(pool)
	}

	var content app.ContentRepository
	if redisClient != nil {
		content = redisinfra.NewContentRepository(redisClient, loader, contentTTL)
	} else {
		content = memory.NewContentRepository(loader, contentTTL)
	}

	var progress app.ProgressRepository = memory.NewProgressStore()
	if pool != nil {
		progress = pginfra.NewProgressStore(pool)
	}

	var guests app.GuestSessionStore = memory.NewGuestSessionStore()
	if redisClient != nil {
		guests = redisinfra.NewGuestSessionStore(redisClient, guestTTL)
	}

	service := app.NewQuizService(content, progress, guests)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "supersecret-dev-key"
	}
	authSvc := auth.NewService(secret)
	router := transport.NewRouter(service, authSvc, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting material quiz service on :%s", finalPort)
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

// resolvePort picks the listen port in precedence order: explicit flag,
// PORT environment variable, config file, then the 8080 default.
func resolvePort(flagPort, envPort, cfgPort string) string {
	for _, p := range []string{flagPort, envPort, cfgPort} {
		if p != "" {
			return p
		}
	}
	return "8080"
}

// sampleCatalog provides demo content for running without Postgres.
func sampleCatalog() domain.Catalog {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.Catalog{
		Materials: []domain.Material{
			{
				ID:        "mat-1",
				Title:     "Basic Arithmetic",
				CreatedAt: created,
				Questions: []domain.Question{
					{
						ID: "q1", MaterialID: "mat-1", Difficulty: domain.DifficultyBeginner,
						Text: "What is 2 + 2?",
						Answers: []domain.Answer{
							{ID: "a1", QuestionID: "q1", Text: "3"},
							{ID: "a2", QuestionID: "q1", Text: "4", Correct: true, Explanation: "2 + 2 = 4."},
							{ID: "a3", QuestionID: "q1", Text: "5"},
						},
					},
					{
						ID: "q2", MaterialID: "mat-1", Difficulty: domain.DifficultyBeginner,
						Text: "What is 3 x 3?",
						Answers: []domain.Answer{
							{ID: "a4", QuestionID: "q2", Text: "6"},
							{ID: "a5", QuestionID: "q2", Text: "9", Correct: true},
						},
					},
					{
						ID: "q3", MaterialID: "mat-1", Difficulty: domain.DifficultyMedium,
						Text: "What is 12 / 4?",
						Answers: []domain.Answer{
							{ID: "a6", QuestionID: "q3", Text: "3", Correct: true},
							{ID: "a7", QuestionID: "q3", Text: "4"},
						},
					},
					{
						ID: "q4", MaterialID: "mat-1", Difficulty: domain.DifficultyHard,
						Text: "What is 17 x 13?",
						Answers: []domain.Answer{
							{ID: "a8", QuestionID: "q4", Text: "221", Correct: true},
							{ID: "a9", QuestionID: "q4", Text: "211"},
						},
					},
				},
			},
		},
	}
}
