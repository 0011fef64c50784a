package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// ViolationRepository handles durable violation log persistence. The hot
// path (counters, nullification) runs against Redis; rows land here in
// batches through the violation worker.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Insert persists a single violation row.
func (r *ViolationRepository) Insert(ctx context.Context, v *model.Violation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO proctor_violations (session_id, type, severity, description, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		v.SessionID, v.Type, v.Severity, v.Description, v.RecordedAt,
	).Scan(&v.ID)
}

// BulkInsert persists a batch of violation rows with COPY.
func (r *ViolationRepository) BulkInsert(ctx context.Context, batch []*model.Violation) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, v := range batch {
		rows = append(rows, []interface{}{
			v.SessionID, v.Type, v.Severity, v.Description, v.RecordedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"proctor_violations"},
		[]string{"session_id", "type", "severity", "description", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// ListBySession retrieves the violation log for a session in order.
func (r *ViolationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, type, severity, description, recorded_at
		 FROM proctor_violations
		 WHERE session_id = $1
		 ORDER BY recorded_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.SessionID, &v.Type, &v.Severity, &v.Description, &v.RecordedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// CountsBySession returns severity counts from the durable log. Used to
// rebuild Redis counters after an expiry or flush.
func (r *ViolationRepository) CountsBySession(ctx context.Context, sessionID uuid.UUID) (model.ViolationCounts, error) {
	var counts model.ViolationCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE severity = 'warning'),
		   COUNT(*) FILTER (WHERE severity = 'critical')
		 FROM proctor_violations
		 WHERE session_id = $1`, sessionID,
	).Scan(&counts.Warnings, &counts.Critical)
	return counts, err
}
