package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// UserRepository handles user data access. Users are provisioned by the
// external identity system; this table only mirrors what scoring needs.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// UpsertByExternalID ensures a local row exists for an externally
// authenticated user and returns it.
func (r *UserRepository) UpsertByExternalID(ctx context.Context, externalID, name string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (external_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, external_id, name, aggregate_score, created_at`,
		externalID, name,
	).Scan(&u.ID, &u.ExternalID, &u.Name, &u.AggregateScore, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, external_id, name, aggregate_score, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.ExternalID, &u.Name, &u.AggregateScore, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// OverwriteAggregateScore replaces (not accumulates) the user's aggregate
// with the latest graded session total. Last-graded-session-wins.
func (r *UserRepository) OverwriteAggregateScore(ctx context.Context, id, score int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET aggregate_score = $2 WHERE id = $1`, id, score)
	return err
}
