package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"material-quiz-service/internal/app"
	"material-quiz-service/internal/domain"
	pginfra "material-quiz-service/internal/infra/postgres"
	pgmigrations "material-quiz-service/internal/infra/postgres/migrations"
	infraredis "material-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestAnswerFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pginfra.NewCatalogLoader(pool)
	content := infraredis.NewContentRepository(redisClient, loader, 5*time.Minute)
	progress := pginfra.NewProgressStore(pool)
	guests := infraredis.NewGuestSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(content, progress, guests)

	student := domain.RegisteredIdentity("u1")

	// Active config caps the registered selection at two beginner questions.
	questions, err := service.ListQuestions(ctx, "mat-1", "beginner", student)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected configured quota of 2, got %d", len(questions))
	}
	if questions[0].ID != "q1" || questions[1].ID != "q2" {
		t.Fatalf("expected prefix q1,q2, got %+v", questions)
	}

	// A wrong attempt is logged but does not unlock anything.
	result, err := service.SubmitAnswer(ctx, domain.AnswerSubmission{
		MaterialID: "mat-1", QuestionID: "q1", AnswerID: "a1",
		AttemptNumber: 1, PotentialScore: 10, Difficulty: "beginner",
	}, student)
	if err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if result.Correct {
		t.Fatalf("expected wrong answer, got %+v", result)
	}

	levels, err := service.ListLevels(ctx, "mat-1", "beginner", student)
	if err != nil {
		t.Fatalf("list levels: %v", err)
	}
	if levels[0].Status != domain.LevelUnlocked || levels[1].Status != domain.LevelLocked {
		t.Fatalf("expected unlocked/locked after wrong answer, got %s/%s", levels[0].Status, levels[1].Status)
	}

	// The correct retry completes level one and opens level two.
	result, err = service.SubmitAnswer(ctx, domain.AnswerSubmission{
		MaterialID: "mat-1", QuestionID: "q1", AnswerID: "a2",
		AttemptNumber: 2, PotentialScore: 10, Difficulty: "beginner",
	}, student)
	if err != nil {
		t.Fatalf("submit correct: %v", err)
	}
	if !result.Correct || result.NextURL == "" {
		t.Fatalf("expected correct result with next url, got %+v", result)
	}

	levels, err = service.ListLevels(ctx, "mat-1", "beginner", student)
	if err != nil {
		t.Fatalf("list levels: %v", err)
	}
	if levels[0].Status != domain.LevelCompleted || levels[1].Status != domain.LevelUnlocked {
		t.Fatalf("expected completed/unlocked, got %s/%s", levels[0].Status, levels[1].Status)
	}

	count, err := service.AttemptCount(ctx, "mat-1", "q1", student)
	if err != nil || count != 2 {
		t.Fatalf("expected 2 logged attempts, got %d err=%v", count, err)
	}

	// Guests run off the redis session state, isolated from the progress log.
	guest := domain.GuestIdentity("guest-sess")
	if _, err := service.SubmitAnswer(ctx, domain.AnswerSubmission{
		MaterialID: "mat-1", QuestionID: "q1", AnswerID: "a2",
		AttemptNumber: 1, PotentialScore: 10, Difficulty: "beginner",
	}, guest); err != nil {
		t.Fatalf("guest submit: %v", err)
	}
	count, err = service.AttemptCount(ctx, "mat-1", "q1", guest)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 guest attempt, got %d err=%v", count, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stmts := []string{
		`INSERT INTO materials (id, title, created_at) VALUES ('mat-1', 'Algebra', now())`,
		`INSERT INTO questions (id, material_id, difficulty, question_text, position) VALUES
			('q1', 'mat-1', 'beginner', 'What is 1 + 1?', 0),
			('q2', 'mat-1', 'beginner', 'What is 2 + 2?', 1),
			('q3', 'mat-1', 'beginner', 'What is 3 + 3?', 2)`,
		`INSERT INTO answers (id, question_id, answer_text, is_correct, explanation, position) VALUES
			('a1', 'q1', '1', false, NULL, 0),
			('a2', 'q1', '2', true, 'Basic addition.', 1),
			('a3', 'q2', '4', true, NULL, 0),
			('a4', 'q2', '5', false, NULL, 1),
			('a5', 'q3', '6', true, NULL, 0),
			('a6', 'q3', '7', false, NULL, 1)`,
		`INSERT INTO question_bank_configs (material_id, beginner_count, medium_count, hard_count, is_active) VALUES
			('mat-1', 2, 0, 0, true)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
