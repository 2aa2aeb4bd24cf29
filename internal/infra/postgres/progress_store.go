package postgres

import (
	"context"
	"fmt"

	"material-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProgressStore is the Postgres-backed append-only progress log.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) Append(ctx context.Context, entry domain.ProgressEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO progress_entries (user_key, material_id, question_id, is_answered, is_correct, score, attempt_number, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UserKey, entry.MaterialID, entry.QuestionID, entry.Answered, entry.Correct, entry.Score, entry.AttemptNumber, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) CorrectQuestionIDs(ctx context.Context, userKey, materialID string) (map[string]struct{}, error) {
	return s.questionIDs(ctx, `SELECT DISTINCT question_id FROM progress_entries WHERE user_key=$1 AND material_id=$2 AND is_correct`, userKey, materialID)
}

func (s *ProgressStore) AnsweredQuestionIDs(ctx context.Context, userKey, materialID string) (map[string]struct{}, error) {
	return s.questionIDs(ctx, `SELECT DISTINCT question_id FROM progress_entries WHERE user_key=$1 AND material_id=$2 AND is_answered`, userKey, materialID)
}

func (s *ProgressStore) AttemptCount(ctx context.Context, userKey, materialID, questionID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM progress_entries WHERE user_key=$1 AND material_id=$2 AND question_id=$3`,
		userKey, materialID, questionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

func (s *ProgressStore) questionIDs(ctx context.Context, query, userKey, materialID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, query, userKey, materialID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
