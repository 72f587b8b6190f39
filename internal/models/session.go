package models

import (
	"context"
	"encoding/json"
	"time"
)

// ExplorerSession is a saved explorer run owned by one user.
type ExplorerSession struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"-" db:"user_id"`
	Input     json.RawMessage `json:"input" db:"input"`
	Result    json.RawMessage `json:"result" db:"result"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"-" db:"updated_at"`
}

// SessionRepository defines session data access scoped to a user.
type SessionRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*ExplorerSession, error)
	Upsert(ctx context.Context, session *ExplorerSession) (*ExplorerSession, error)
	DeleteAll(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, sessionID string) error
}
