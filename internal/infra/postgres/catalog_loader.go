package postgres

import (
	"context"
	"fmt"

	"material-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the authored content snapshot from Postgres. It is
// placed behind a caching ContentRepository (memory or redis) so the full
// catalog is not reassembled on every request.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	materials, index, err := l.loadMaterials(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}
	if err := l.loadQuestions(ctx, index); err != nil {
		return domain.Catalog{}, err
	}
	configs, err := l.loadConfigs(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}

	catalog := domain.Catalog{Configs: configs}
	for _, id := range materials {
		catalog.Materials = append(catalog.Materials, *index[id])
	}
	return catalog, nil
}

func (l *CatalogLoader) loadMaterials(ctx context.Context) ([]string, map[string]*domain.Material, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, created_at FROM materials ORDER BY created_at ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("load materials: %w", err)
	}
	defer rows.Close()

	var order []string
	index := make(map[string]*domain.Material)
	for rows.Next() {
		var m domain.Material
		if err := rows.Scan(&m.ID, &m.Title, &m.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan material: %w", err)
		}
		order = append(order, m.ID)
		index[m.ID] = &m
	}
	return order, index, rows.Err()
}

func (l *CatalogLoader) loadQuestions(ctx context.Context, materials map[string]*domain.Material) error {
	rows, err := l.pool.Query(ctx, `SELECT id, material_id, difficulty, question_text FROM questions ORDER BY material_id, position ASC`)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make(map[string]*domain.Question)
	var order []string
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.MaterialID, &q.Difficulty, &q.Text); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		order = append(order, q.ID)
		questions[q.ID] = &q
	}
	if err := rows.Err(); err != nil {
		return err
	}

	answerRows, err := l.pool.Query(ctx, `SELECT id, question_id, answer_text, is_correct, COALESCE(explanation, '') FROM answers ORDER BY question_id, position ASC`)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var a domain.Answer
		if err := answerRows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Correct, &a.Explanation); err != nil {
			return fmt.Errorf("scan answer: %w", err)
		}
		if q, ok := questions[a.QuestionID]; ok {
			q.Answers = append(q.Answers, a)
		}
	}
	if err := answerRows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		q := questions[id]
		if m, ok := materials[q.MaterialID]; ok {
			m.Questions = append(m.Questions, *q)
		}
	}
	return nil
}

func (l *CatalogLoader) loadConfigs(ctx context.Context) ([]domain.BankConfig, error) {
	rows, err := l.pool.Query(ctx, `SELECT material_id, beginner_count, medium_count, hard_count, is_active FROM question_bank_configs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load bank configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.BankConfig
	for rows.Next() {
		var cfg domain.BankConfig
		if err := rows.Scan(&cfg.MaterialID, &cfg.BeginnerCount, &cfg.MediumCount, &cfg.HardCount, &cfg.Active); err != nil {
			return nil, fmt.Errorf("scan bank config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
