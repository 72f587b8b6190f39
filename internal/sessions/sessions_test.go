// internal/sessions/sessions_test.go
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"capability-explorer/internal/common/database"
	"capability-explorer/internal/common/errors"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeRepo struct {
	sessions map[string]*models.ExplorerSession
	err      error
	lastList int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[string]*models.ExplorerSession{}}
}

func (f *fakeRepo) key(userID, id string) string { return userID + "/" + id }

func (f *fakeRepo) ListByUser(_ context.Context, userID string, limit int) ([]*models.ExplorerSession, error) {
	f.lastList = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ExplorerSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, s *models.ExplorerSession) (*models.ExplorerSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sessions[f.key(s.UserID, s.ID)] = s
	return s, nil
}

func (f *fakeRepo) DeleteAll(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	for k, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, k)
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, userID, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.sessions, f.key(userID, id))
	return nil
}

func newService(t *testing.T, repo models.SessionRepository, now time.Time) *Service {
	t.Helper()
	svc := NewService(repo, logger.NewTestLogger(t))
	svc.now = func() time.Time { return now }
	return svc
}

// ==========================
// Service
// ==========================

func TestNormalizeID(t *testing.T) {
	long := strings.Repeat("a", 150)

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"plain", "session-1", "session-1", true},
		{"trimmed", "  session-1 \n", "session-1", true},
		{"truncated", long, long[:MaxIDLength], true},
		{"blank", "   ", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeID(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Save(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

	t.Run("normalizes and upserts", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(t, repo, now)

		body := `{"session":{"id":"  run-7 ","createdAt":"2026-03-30T08:00:00+02:00","input":{"industry":"retail"},"result":{"confidence":0.8}}}`
		saved, err := svc.Save(context.Background(), "user-1", []byte(body))
		require.NoError(t, err)

		assert.Equal(t, "run-7", saved.ID)
		assert.Equal(t, "user-1", saved.UserID)
		assert.Equal(t, time.Date(2026, 3, 30, 6, 0, 0, 0, time.UTC), saved.CreatedAt)
		assert.JSONEq(t, `{"industry":"retail"}`, string(saved.Input))
		assert.JSONEq(t, `{"confidence":0.8}`, string(saved.Result))
	})

	t.Run("defaults missing fields", func(t *testing.T) {
		svc := newService(t, newFakeRepo(), now)

		saved, err := svc.Save(context.Background(), "user-1", []byte(`{"session":{"id":"run-8","createdAt":"not a date","input":null}}`))
		require.NoError(t, err)
		assert.Equal(t, now, saved.CreatedAt)
		assert.JSONEq(t, `{}`, string(saved.Input))
		assert.JSONEq(t, `{}`, string(saved.Result))
	})

	t.Run("same id replaces", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(t, repo, now)

		_, err := svc.Save(context.Background(), "user-1", []byte(`{"session":{"id":"run-9","result":{"v":1}}}`))
		require.NoError(t, err)
		_, err = svc.Save(context.Background(), "user-1", []byte(`{"session":{"id":"run-9","result":{"v":2}}}`))
		require.NoError(t, err)

		require.Len(t, repo.sessions, 1)
		assert.JSONEq(t, `{"v":2}`, string(repo.sessions["user-1/run-9"].Result))
	})

	invalid := []struct {
		name string
		body string
	}{
		{"not json", `{"session":`},
		{"missing session", `{}`},
		{"session not object", `{"session":"run"}`},
		{"missing id", `{"session":{"input":{}}}`},
		{"numeric id", `{"session":{"id":42}}`},
		{"blank id", `{"session":{"id":"   "}}`},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := newService(t, newFakeRepo(), now).Save(context.Background(), "user-1", []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSession))
			assert.Equal(t, "Invalid session payload", errors.Normalize(err).Message)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		repo := newFakeRepo()
		repo.err = fmt.Errorf("connection reset")

		_, err := newService(t, repo, now).Save(context.Background(), "user-1", []byte(`{"session":{"id":"run"}}`))
		require.Error(t, err)
		assert.Equal(t, "Failed to save explorer session", errors.Normalize(err).Message)
		assert.Equal(t, 500, errors.Normalize(err).HTTPStatus())
	})
}

func TestService_ListClearDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(t, repo, time.Now())
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := svc.Save(ctx, "user-1", []byte(fmt.Sprintf(`{"session":{"id":%q}}`, id)))
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, "user-2", []byte(`{"session":{"id":"c"}}`))
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, ListLimit, repo.lastList)

	id, err := svc.Delete(ctx, "user-1", " a ")
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = svc.Delete(ctx, "user-1", "  ")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSessionID))

	require.NoError(t, svc.Clear(ctx, "user-1"))
	list, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_StoreFailureMessages(t *testing.T) {
	repo := newFakeRepo()
	repo.err = fmt.Errorf("timeout")
	svc := newService(t, repo, time.Now())
	ctx := context.Background()

	_, err := svc.List(ctx, "user-1")
	assert.Equal(t, "Failed to load explorer sessions", errors.Normalize(err).Message)

	err = svc.Clear(ctx, "user-1")
	assert.Equal(t, "Failed to clear explorer sessions", errors.Normalize(err).Message)

	_, err = svc.Delete(ctx, "user-1", "a")
	assert.Equal(t, "Failed to delete explorer session", errors.Normalize(err).Message)
}

// ==========================
// PostgresStore
// ==========================

func TestPostgresStore_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "input", "result", "created_at"}).
		AddRow("run-2", []byte(`{"industry":"retail"}`), []byte(`{"confidence":0.9}`), created).
		AddRow("run-1", nil, nil, created.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, input, result, created_at FROM bss_explorer_sessions").
		WithArgs("user-1", ListLimit).
		WillReturnRows(rows)

	list, err := NewPostgresStore(&database.PostgresClient{DB: db}).ListByUser(context.Background(), "user-1", ListLimit)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-2", list[0].ID)
	assert.JSONEq(t, `{"industry":"retail"}`, string(list[0].Input))
	assert.JSONEq(t, `{}`, string(list[1].Result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	session := &models.ExplorerSession{
		ID:        "run-1",
		UserID:    "user-1",
		Input:     json.RawMessage(`{"industry":"retail"}`),
		Result:    json.RawMessage(`{}`),
		CreatedAt: created,
	}

	mock.ExpectQuery(`INSERT INTO bss_explorer_sessions .* ON CONFLICT \(user_id, id\) DO UPDATE`).
		WithArgs("user-1", "run-1", []byte(`{"industry":"retail"}`), []byte(`{}`), created).
		WillReturnRows(sqlmock.NewRows([]string{"id", "input", "result", "created_at"}).
			AddRow("run-1", []byte(`{"industry":"retail"}`), []byte(`{}`), created))

	saved, err := NewPostgresStore(&database.PostgresClient{DB: db}).Upsert(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "run-1", saved.ID)
	assert.Equal(t, "user-1", saved.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Deletes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(&database.PostgresClient{DB: db})

	mock.ExpectExec("DELETE FROM bss_explorer_sessions WHERE user_id = \\$1 AND id = \\$2").
		WithArgs("user-1", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM bss_explorer_sessions WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnError(fmt.Errorf("permission denied"))

	require.NoError(t, store.Delete(context.Background(), "user-1", "run-1"))
	assert.ErrorContains(t, store.DeleteAll(context.Background(), "user-1"), "delete sessions")
	assert.NoError(t, mock.ExpectationsWereMet())
}
