package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSnapshot records s as closed at closedAt. Saving the same session twice keeps the later snapshot.
func (r *SessionRepository) SaveSnapshot(ctx context.Context, s domain.Session, closedAt time.Time) error {
	query := `
		INSERT INTO room_sessions (session_id, room_id, code, language, participant_count, created_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE
		SET code = EXCLUDED.code,
		    language = EXCLUDED.language,
		    participant_count = EXCLUDED.participant_count,
		    closed_at = EXCLUDED.closed_at`
	_, err := r.db.Exec(ctx, query, s.ID, s.RoomID, s.Code, s.Language, len(s.Participants), s.CreatedAt, closedAt)
	if err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}
