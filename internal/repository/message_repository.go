package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ranklift/ranklift-backend/internal/model"
)

// MessageRepository handles clarification chat message persistence.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create inserts a chat turn and fills in the generated ID and timestamp.
func (r *MessageRepository) Create(ctx context.Context, m *model.ChatMessage) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (session_id, content, is_user)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		m.SessionID, m.Content, m.IsUser,
	).Scan(&m.ID, &m.CreatedAt)
}

// ListBySession retrieves all chat turns for a session in chronological order.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, content, is_user, created_at
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Content, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
