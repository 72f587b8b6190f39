// internal/handlers/tools/handler_test.go
package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"
	toolkit "capability-explorer/pkg/tools"

	"github.com/gorilla/mux"
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

const catalogWithPreview = `version: test
tools:
  - id: roi-calculator
    name: ROI Calculator
    category: calculators
    featured: true
    inputs:
      - {id: currentAnnualCost, label: Current Annual Cost, type: currency, required: true}
      - {id: estimatedAnnualSavings, label: Estimated Annual Savings, type: currency, required: true}
      - {id: implementationCost, label: Implementation Cost, type: currency, required: true}
  - id: cash-flow-forecaster
    name: Cash Flow Forecaster
    category: calculators
  - id: vendor-scorecard
    name: Vendor Scorecard
    category: analyzers
    comingSoon: true
`

func newRouter(t *testing.T, rec UsageRecorder) *mux.Router {
	t.Helper()
	reg, err := toolkit.Parse([]byte(catalogWithPreview),
		toolkit.WithClock(func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	h := NewHandler(reg, rec, logger.NewTestLogger(t))
	r := mux.NewRouter()
	r.HandleFunc(ListRoute, h.List).Methods(http.MethodGet)
	r.HandleFunc(ItemRoute, h.Get).Methods(http.MethodGet)
	r.HandleFunc(ExecuteRoute, h.Execute).Methods(http.MethodPost)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const roiInputs = `{"inputs":{"currentAnnualCost":250000,"estimatedAnnualSavings":"90000","implementationCost":60000}}`

// ==========================
// List and Get
// ==========================

func TestHandler_List(t *testing.T) {
	r := newRouter(t, nil)

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{"", []string{"roi-calculator", "cash-flow-forecaster", "vendor-scorecard"}},
		{"?category=analyzers", []string{"vendor-scorecard"}},
		{"?featured=true", []string{"roi-calculator"}},
		{"?category=generators", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(r, http.MethodGet, ListRoute+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			var resp ListResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
			ids := []string{}
			for _, s := range resp.Tools {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	r := newRouter(t, nil)

	w := do(r, http.MethodGet, "/tools/roi-calculator", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp ItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ROI Calculator", resp.Tool.Name)
	assert.Len(t, resp.Tool.Inputs, 3)

	w = do(r, http.MethodGet, "/tools/unknown-tool", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Tool not found", body["error"])

	w = do(r, http.MethodGet, "/tools/"+strings.Repeat("a", 51), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid tool ID format", decode(t, w)["error"])
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute(t *testing.T) {
	rec := &captureRecorder{}
	w := do(newRouter(t, rec), http.MethodPost, "/tools/roi-calculator/execute", roiInputs)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "roi-calculator", resp.ToolID)
	assert.Equal(t, "ROI Calculator", resp.ToolName)
	assert.Equal(t, "2026-10-01T00:00:00.000Z", resp.Result.Timestamp)
	assert.NotEmpty(t, resp.Result.Outputs)

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, EventName, evt.EventName)
	assert.Equal(t, models.CategoryTools, evt.Category)
	assert.Equal(t, "roi-calculator", evt.ToolID)
	assert.Equal(t, "/tools/roi-calculator/execute", evt.Path)
	assert.Equal(t, 3, evt.Metadata["inputCount"])
	assert.Empty(t, evt.UserID)
}

func TestHandler_ExecuteRejections(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        string
		wantStatus  int
		wantError   string
		wantMissing []interface{}
	}{
		{
			name:       "bad id",
			path:       "/tools/roi$calc/execute",
			body:       roiInputs,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid tool ID format",
		},
		{
			name:       "unknown tool",
			path:       "/tools/nope/execute",
			body:       roiInputs,
			wantStatus: http.StatusNotFound,
			wantError:  "Tool not found",
		},
		{
			name:       "coming soon",
			path:       "/tools/vendor-scorecard/execute",
			body:       roiInputs,
			wantStatus: http.StatusBadRequest,
			wantError:  "This tool is coming soon and not yet available",
		},
		{
			name:       "malformed json",
			path:       "/tools/roi-calculator/execute",
			body:       `{"inputs":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON body",
		},
		{
			name:       "boolean input",
			path:       "/tools/roi-calculator/execute",
			body:       `{"inputs":{"currentAnnualCost":true,"estimatedAnnualSavings":1,"implementationCost":1}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  `Invalid type for input "currentAnnualCost". Expected string or number.`,
		},
		{
			name:        "missing required inputs",
			path:        "/tools/roi-calculator/execute",
			body:        `{"inputs":{"currentAnnualCost":"","estimatedAnnualSavings":null}}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Missing required inputs",
			wantMissing: []interface{}{"currentAnnualCost", "estimatedAnnualSavings", "implementationCost"},
		},
		{
			name:       "body over limit",
			path:       "/tools/roi-calculator/execute",
			body:       `{"inputs":{"note":"` + strings.Repeat("x", MaxBodyBytes) + `"}}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "Request too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captureRecorder{}
			w := do(newRouter(t, rec), http.MethodPost, tt.path, tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantMissing != nil {
				assert.Equal(t, tt.wantMissing, body["missingFields"])
			}
			assert.Empty(t, rec.events)
		})
	}
}

func TestHandler_ExecuteBodyOverLimitWithoutContentLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/tools/roi-calculator/execute",
		strings.NewReader(`{"inputs":{"note":"`+strings.Repeat("x", MaxBodyBytes)+`"}}`))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	newRouter(t, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
