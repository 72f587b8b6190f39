// internal/usage/postgres.go
package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"capability-explorer/internal/common/database"
	"capability-explorer/internal/models"
)

// PostgresStore writes usage events to bss_usage_events and reads them back
// for analytics.
type PostgresStore struct {
	db *database.PostgresClient
}

func NewPostgresStore(db *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Write(ctx context.Context, event models.UsageEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO bss_usage_events (id, user_id, event_name, category, path, tool_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, nullString(event.UserID), event.EventName, string(event.Category),
		nullString(event.Path), nullString(event.ToolID), metadata, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// ListForUser returns the user's events created at or after since, newest first.
func (s *PostgresStore) ListForUser(ctx context.Context, userID string, since time.Time, limit int) ([]models.UsageEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, event_name, category, path, tool_id, created_at
		FROM bss_usage_events
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage events: %w", err)
	}
	defer rows.Close()

	var events []models.UsageEvent
	for rows.Next() {
		var (
			e            models.UsageEvent
			category     string
			path, toolID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EventName, &category, &path, &toolID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage event: %w", err)
		}
		e.UserID = userID
		e.Category = models.UsageCategory(category)
		e.Path = path.String
		e.ToolID = toolID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
