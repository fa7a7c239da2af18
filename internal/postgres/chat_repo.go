package postgres

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

const (
	insertChatQuery = `
		INSERT INTO chat_messages (id, room_id, sender_id, display_name, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// newest first, keyset on (created_at, id)
	historyQuery = `
		SELECT id, room_id, sender_id, display_name, text, created_at
		FROM chat_messages
		WHERE room_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4`
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// Save stores m and returns it with its new id.
func (r *ChatRepository) Save(ctx context.Context, m domain.ChatMessage) (domain.ChatMessage, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, insertChatQuery, m.ID, m.RoomID, m.SenderID, m.DisplayName, m.Text, m.SentAt)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("insert chat message: %w", err)
	}
	return m, nil
}

// History pages through a room's archived chat, newest first. next is empty on the last page.
func (r *ChatRepository) History(ctx context.Context, roomID, after string, limit int) ([]domain.ChatMessage, string, error) {
	limit = ClampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	var createdAt, id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, historyQuery, roomID, createdAt, id, limit)
	if err != nil {
		return nil, "", fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0, limit)
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.DisplayName, &m.Text, &m.SentAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.SentAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}
