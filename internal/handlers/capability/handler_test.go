// internal/handlers/capability/handler_test.go
package capability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/explorer/matcher"
	"capability-explorer/internal/explorer/taxonomy"
	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type captureRecorder struct {
	mu     sync.Mutex
	events []models.UsageEvent
}

func (c *captureRecorder) Record(e models.UsageEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return true
}

type droppingRecorder struct{}

func (droppingRecorder) Record(models.UsageEvent) bool { return false }

func newHandler(t *testing.T, rec UsageRecorder) *Handler {
	t.Helper()
	rb := rulebook.MustDefault()
	engine, err := matcher.NewEngine(rb)
	require.NoError(t, err)
	return NewHandler(taxonomy.NewRegistry(rb), engine, rec, logger.NewTestLogger(t))
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, Route, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Match(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ==========================
// Taxonomy
// ==========================

func TestHandler_Taxonomy(t *testing.T) {
	h := newHandler(t, nil)
	w := httptest.NewRecorder()
	h.Taxonomy(w, httptest.NewRequest(http.MethodGet, Route, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp TaxonomyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Deterministic)
	assert.Equal(t, 0.65, resp.ConfidenceThreshold)
	assert.Contains(t, resp.Industries, "construction")
	assert.Contains(t, resp.Roles, "operations-manager")
	assert.Contains(t, resp.PainPoints, "scheduling-delays")
}

// ==========================
// Match
// ==========================

func TestHandler_Match(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "exact rule",
			body:       `{"industry":"construction","role":"operations-manager","painPoint":"scheduling-delays"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing pain point",
			body:       `{"industry":"construction","role":"operations-manager"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields.",
		},
		{
			name:       "empty string counts as missing",
			body:       `{"industry":"construction","role":"","painPoint":"money"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields.",
		},
		{
			name:       "null body",
			body:       `null`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields.",
		},
		{
			name:       "unknown industry",
			body:       `{"industry":"not-a-real-industry","role":"operations-manager","painPoint":"scheduling-delays"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid input values.",
		},
		{
			name:       "malformed json",
			body:       `{"industry":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request payload.",
		},
		{
			name:       "reserved industry",
			body:       `{"industry":"other","role":"owner","painPoint":"money"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "Unable to generate deterministic output.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captureRecorder{}
			w := post(newHandler(t, rec), tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				assert.Empty(t, rec.events)
				return
			}
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, 0.65, body["confidenceThreshold"])
			assert.Len(t, rec.events, 1)
		})
	}
}

func TestHandler_MatchScenario(t *testing.T) {
	rec := &captureRecorder{}
	h := newHandler(t, rec)
	body := `{"industry":"construction","role":"operations-manager","painPoint":"scheduling-delays"}`

	first := post(h, body)
	second := post(h, body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	var resp MatchResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.Equal(t, models.ExplorerInput{Industry: "construction", Role: "operations-manager", PainPoint: "scheduling-delays"}, resp.Input)
	assert.Equal(t, 0.82, resp.Result.Confidence)
	assert.NotEmpty(t, resp.Result.Summary)
	assert.True(t, resp.Result.MeetsThreshold)

	require.Len(t, rec.events, 2)
	evt := rec.events[0]
	assert.Equal(t, EventName, evt.EventName)
	assert.Equal(t, models.CategoryExplorer, evt.Category)
	assert.Equal(t, "construction", evt.Metadata["industry"])
	assert.Equal(t, 0.82, evt.Metadata["confidence"])
}

func TestHandler_MatchSucceedsWhenRecorderDrops(t *testing.T) {
	w := post(newHandler(t, droppingRecorder{}), `{"industry":"construction","role":"owner","painPoint":"money"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_FieldsListedForValidationErrors(t *testing.T) {
	w := post(newHandler(t, nil), `{"industry":"construction"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.ElementsMatch(t, []interface{}{"role", "painPoint"}, body["fields"])
}
