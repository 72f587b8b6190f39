// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capability-explorer/internal/common/auth"
	"capability-explorer/internal/common/config"
	"capability-explorer/internal/common/database"
	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/common/observability"
	"capability-explorer/internal/common/ratelimit"
	"capability-explorer/internal/explorer/guard"
	"capability-explorer/internal/explorer/matcher"
	"capability-explorer/internal/explorer/taxonomy"
	"capability-explorer/internal/server"
	"capability-explorer/internal/sessions"
	"capability-explorer/internal/usage"
	"capability-explorer/pkg/rulebook"
)

// The suite runs against real services and is skipped unless E2E=1.
// Expected: Postgres on localhost:5432 (DB_USER/DB_PASSWORD) and Redis on localhost:6379.

const jwtSecret = "e2e-secret-e2e-secret-e2e-secret-e2e"

var (
	pg  *database.PostgresClient
	rdb *database.RedisClient
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E") != "1" {
		fmt.Println("skipping e2e suite, set E2E=1 to run")
		os.Exit(0)
	}

	var err error
	pg, err = database.NewPostgres(config.PostgresConfig{
		Host:           envOr("DB_HOST", "localhost"),
		Port:           5432,
		Database:       envOr("DB_NAME", "capability_explorer"),
		User:           envOr("DB_USER", "postgres"),
		Password:       envOr("DB_PASSWORD", "postgres"),
		MaxConnections: 5,
		MaxIdle:        2,
		SSLMode:        "disable",
	})
	if err != nil {
		panic(fmt.Sprintf("failed to open postgres: %v", err))
	}

	rdb, err = database.NewRedis(config.RedisConfig{Enabled: true, Address: envOr("REDIS_ADDRESS", "localhost:6379")})
	if err != nil {
		panic(fmt.Sprintf("failed to create redis client: %v", err))
	}

	code := m.Run()

	pg.Close()
	rdb.Close()
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	assertServicesConnectivity(ctx, t)
	applyMigrations(ctx, t)

	log := logger.NewTestLogger(t)
	recorder := usage.NewRecorder(usage.Config{QueueSize: 64, Workers: 2}, usage.MultiSink{usage.NewPostgresStore(pg)}, log)
	recorder.Start()

	srv := httptest.NewServer(newRouter(t, recorder))
	defer srv.Close()

	userID := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	token := signToken(t, userID)

	testCapabilityMatch(t, srv.URL, token)
	testRedisRateLimit(ctx, t)
	testSessionsRoundTrip(t, srv.URL, token)

	require.NoError(t, recorder.Close(ctx))
	testUsageSummary(t, srv.URL, token)
}

// ==========================
// 1. Service Connectivity
// ==========================

func assertServicesConnectivity(ctx context.Context, t *testing.T) {
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")
}

// ==========================
// 2. Schema
// ==========================

func applyMigrations(ctx context.Context, t *testing.T) {
	applied, err := pg.Migrate(ctx)
	require.NoError(t, err)
	t.Logf("applied migrations: %v", applied)

	// A second run is a no-op.
	again, err := pg.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

// ==========================
// 3. HTTP Surface
// ==========================

func newRouter(t *testing.T, recorder *usage.Recorder) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	rb := rulebook.MustDefault()
	engine, err := matcher.NewEngine(rb)
	require.NoError(t, err)

	policy := ratelimit.Policy{Limit: 100, Window: time.Minute}
	limiter := ratelimit.NewRedisLimiter(rdb.Client, fmt.Sprintf("e2e:%d", time.Now().UnixNano()), policy)

	return server.NewRouter(server.Dependencies{
		Logger:          log,
		Observability:   observability.NewWithRegisterer("capability-explorer-e2e", prometheus.NewRegistry(), log),
		Registry:        taxonomy.NewRegistry(rb),
		Engine:          engine,
		Recorder:        recorder,
		Sessions:        sessions.NewService(sessions.NewPostgresStore(pg), log),
		Usage:           usage.NewService(usage.NewPostgresStore(pg), log),
		Auth:            auth.NewAuthenticator("sb-access-token", log, auth.WithJWTVerifier(auth.NewJWTVerifier(jwtSecret))),
		CapabilityGuard: guard.NewRateGuard("capability", "redis", limiter, policy, log),
		MaxBodyBytes:    1 << 20,
	})
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}

func call(t *testing.T, method, url, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func testCapabilityMatch(t *testing.T, base, token string) {
	status, body := call(t, http.MethodPost, base+"/capability", token,
		`{"industry":"construction","role":"operations-manager","painPoint":"scheduling-delays"}`)
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, 0.82, result["confidence"])

	status, body = call(t, http.MethodPost, base+"/capability", token, `{"industry":"construction","role":"operations-manager"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields.", body["error"])
}

func testRedisRateLimit(ctx context.Context, t *testing.T) {
	policy := ratelimit.Policy{Limit: 2, Window: time.Minute}
	limiter := ratelimit.NewRedisLimiter(rdb.Client, fmt.Sprintf("e2e-boundary:%d", time.Now().UnixNano()), policy)

	for i := 0; i < 2; i++ {
		res, err := limiter.Check(ctx, "client")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.Check(ctx, "client")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func testSessionsRoundTrip(t *testing.T, base, token string) {
	status, _ := call(t, http.MethodPost, base+"/dashboard/sessions", token,
		`{"session":{"id":"e2e-run","input":{"industry":"construction"},"result":{"confidence":0.82}}}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, http.MethodPost, base+"/dashboard/sessions", token,
		`{"session":{"id":"e2e-run","input":{"industry":"retail"},"result":{}}}`)
	require.Equal(t, http.StatusOK, status)

	status, body := call(t, http.MethodGet, base+"/dashboard/sessions", token, "")
	require.Equal(t, http.StatusOK, status)
	list := body["sessions"].([]interface{})
	require.Len(t, list, 1)
	input := list[0].(map[string]interface{})["input"].(map[string]interface{})
	assert.Equal(t, "retail", input["industry"])

	status, _ = call(t, http.MethodDelete, base+"/dashboard/sessions", token, "")
	require.Equal(t, http.StatusOK, status)
}

func testUsageSummary(t *testing.T, base, token string) {
	status, body := call(t, http.MethodGet, base+"/dashboard/usage", token, "")
	require.Equal(t, http.StatusOK, status)
	totals := body["totals"].(map[string]interface{})
	assert.GreaterOrEqual(t, totals["explorerRuns"], float64(1))
}
