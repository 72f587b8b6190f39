// internal/sessions/service.go
package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/validation"
	"capability-explorer/internal/models"
)

const (
	// ListLimit is the number of sessions returned, newest first.
	ListLimit = 100
	// MaxIDLength truncates client supplied session ids.
	MaxIDLength = 120
)

const payloadSchema = `{
  "type": "object",
  "required": ["session"],
  "properties": {
    "session": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string"}
      }
    }
  }
}`

// SaveRequest is the POST body for a session upsert.
type SaveRequest struct {
	Session struct {
		ID        string          `json:"id"`
		CreatedAt interface{}     `json:"createdAt"`
		Input     json.RawMessage `json:"input"`
		Result    json.RawMessage `json:"result"`
	} `json:"session"`
}

// Service applies id and timestamp normalization on top of a SessionRepository.
type Service struct {
	repo      models.SessionRepository
	validator *validation.DocumentValidator
	logger    logger.Logger
	now       func() time.Time
}

func NewService(repo models.SessionRepository, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validation.MustDocumentValidator(payloadSchema),
		logger:    log.WithFields(map[string]interface{}{"component": "sessions"}),
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]*models.ExplorerSession, error) {
	list, err := s.repo.ListByUser(ctx, userID, ListLimit)
	if err != nil {
		s.logger.Error("failed to load sessions", map[string]interface{}{"userId": userID, "error": err})
		return nil, errors.NewSessionStoreFailedError("Failed to load explorer sessions", err)
	}
	return list, nil
}

// Save validates a decoded POST body and upserts the session it carries.
func (s *Service) Save(ctx context.Context, userID string, body []byte) (*models.ExplorerSession, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.NewInvalidSessionError(err.Error())
	}
	if err := s.validator.Validate(doc); err != nil {
		return nil, errors.NewInvalidSessionError(err.Error())
	}

	var req SaveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.NewInvalidSessionError(err.Error())
	}

	id, ok := NormalizeID(req.Session.ID)
	if !ok {
		return nil, errors.NewInvalidSessionError("empty session id")
	}

	session := &models.ExplorerSession{
		ID:        id,
		UserID:    userID,
		Input:     objectOrEmpty(req.Session.Input),
		Result:    objectOrEmpty(req.Session.Result),
		CreatedAt: s.normalizeCreatedAt(req.Session.CreatedAt),
	}

	saved, err := s.repo.Upsert(ctx, session)
	if err != nil {
		s.logger.Error("failed to save session", map[string]interface{}{"userId": userID, "sessionId": id, "error": err})
		return nil, errors.NewSessionStoreFailedError("Failed to save explorer session", err)
	}
	return saved, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		s.logger.Error("failed to clear sessions", map[string]interface{}{"userId": userID, "error": err})
		return errors.NewSessionStoreFailedError("Failed to clear explorer sessions", err)
	}
	return nil
}

// Delete removes one session and returns the normalized id.
func (s *Service) Delete(ctx context.Context, userID, rawID string) (string, error) {
	id, ok := NormalizeID(rawID)
	if !ok {
		return "", errors.NewInvalidSessionIDError()
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		s.logger.Error("failed to delete session", map[string]interface{}{"userId": userID, "sessionId": id, "error": err})
		return "", errors.NewSessionStoreFailedError("Failed to delete explorer session", err)
	}
	return id, nil
}

// NormalizeID trims raw and truncates it to MaxIDLength runes.
func NormalizeID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if r := []rune(id); len(r) > MaxIDLength {
		id = string(r[:MaxIDLength])
	}
	return id, id != ""
}

func (s *Service) normalizeCreatedAt(raw interface{}) time.Time {
	if str, ok := raw.(string); ok {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(str)); err == nil {
				return t.UTC()
			}
		}
	}
	return s.now().UTC()
}

func objectOrEmpty(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage(`{}`)
	}
	return raw
}
