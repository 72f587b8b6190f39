// internal/sessions/store.go
package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"capability-explorer/internal/common/database"
	"capability-explorer/internal/models"
)

// PostgresStore implements models.SessionRepository over bss_explorer_sessions.
type PostgresStore struct {
	db *database.PostgresClient
}

func NewPostgresStore(db *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*models.ExplorerSession, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, input, result, created_at
		FROM bss_explorer_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ExplorerSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		session.UserID = userID
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Upsert inserts the session or replaces the one with the same (user_id, id).
func (s *PostgresStore) Upsert(ctx context.Context, session *models.ExplorerSession) (*models.ExplorerSession, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO bss_explorer_sessions (user_id, id, input, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, id) DO UPDATE
		SET input = EXCLUDED.input,
		    result = EXCLUDED.result,
		    created_at = EXCLUDED.created_at,
		    updated_at = NOW()
		RETURNING id, input, result, created_at`,
		session.UserID, session.ID, []byte(session.Input), []byte(session.Result), session.CreatedAt,
	)

	saved, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	saved.UserID = session.UserID
	return saved, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM bss_explorer_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, sessionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM bss_explorer_sessions WHERE user_id = $1 AND id = $2`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*models.ExplorerSession, error) {
	var (
		session       models.ExplorerSession
		input, result []byte
	)
	if err := row.Scan(&session.ID, &input, &result, &session.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not returned: %w", err)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Input = rawOrEmpty(input)
	session.Result = rawOrEmpty(result)
	return &session, nil
}

func rawOrEmpty(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(b)
}
