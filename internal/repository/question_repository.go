package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// QuestionRepository handles the seed question bank.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Random picks one seed question uniformly from the bank. The bank is tiny
// (dozens of rows), so ORDER BY random() is fine here.
func (r *QuestionRepository) Random(ctx context.Context) (*model.SeedQuestion, error) {
	q := &model.SeedQuestion{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, prompt, category, created_at
		 FROM seed_questions
		 ORDER BY random()
		 LIMIT 1`,
	).Scan(&q.ID, &q.Prompt, &q.Category, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}
