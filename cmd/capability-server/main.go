// cmd/capability-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

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
	"capability-explorer/pkg/tools"
)

const serviceName = "capability-explorer"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": serviceName,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting capability explorer...", zap.String("version", cfg.App.Version))

	ctx := context.Background()
	readiness := map[string]server.ReadinessCheck{}

	// --- Rulebook & engine ---
	rb, err := loadRulebook(cfg.Rulebook.Path)
	if err != nil {
		zapLog.Fatal("rulebook load failed", zap.Error(err))
	}
	engine, err := matcher.NewEngine(rb)
	if err != nil {
		zapLog.Fatal("rulebook rejected", zap.Error(err))
	}
	coverage := engine.Stats()
	zapLog.Info("Rulebook loaded",
		zap.String("version", rb.Version),
		zap.Int("exact", coverage.Exact),
		zap.Int("template", coverage.Template),
		zap.Int("generic", coverage.Generic),
		zap.Int("belowThreshold", coverage.BelowCut),
	)

	toolRegistry, err := tools.Default()
	if err != nil {
		zapLog.Fatal("tool catalog rejected", zap.Error(err))
	}
	zapLog.Info("Tool catalog loaded",
		zap.String("version", toolRegistry.Version()),
		zap.Int("tools", len(toolRegistry.All())),
	)

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		readiness["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Database.Postgres.AutoMigrate {
			applied, err := pg.Migrate(ctx)
			if err != nil {
				zapLog.Fatal("postgres migrations failed", zap.Error(err))
			}
			zapLog.Info("postgres migrations applied", zap.Strings("migrations", applied))
		}
	}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled || cfg.RateLimit.Backend == "redis" {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		readiness["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Usage recorder ---
	var (
		recorder *usage.Recorder
		sinks    usage.MultiSink
	)
	if cfg.Usage.Enabled && pg != nil {
		sinks = append(sinks, usage.NewPostgresStore(pg))
	}
	if cfg.Usage.Enabled && cfg.Usage.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Usage.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, usage events will not be indexed", zap.Error(err))
		} else {
			sinks = append(sinks, usage.NewElasticsearchSink(es, cfg.Usage.Elasticsearch.Index))
			zapLog.Info("Elasticsearch connected successfully")
		}
	}
	if len(sinks) > 0 {
		recorder = usage.NewRecorder(usage.Config{
			QueueSize:    cfg.Usage.QueueSize,
			Workers:      cfg.Usage.Workers,
			WriteTimeout: config.GetDuration(cfg.Usage.WriteTimeout),
		}, sinks, log)
		recorder.Start()
	}

	// --- Rate limiting ---
	newGuard := func(route string, preset config.LimitPreset) (*guard.RateGuard, func()) {
		policy := ratelimit.Policy{Limit: preset.Limit, Window: config.GetDuration(preset.Window)}
		if cfg.RateLimit.Backend == "redis" {
			prefix := cfg.RateLimit.KeyPrefix + ":" + route
			return guard.NewRateGuard(route, "redis", ratelimit.NewRedisLimiter(rdb.Client, prefix, policy), policy, log), func() {}
		}
		limiter := ratelimit.NewMemoryLimiter(policy)
		limiter.StartSweeper(policy.Window)
		return guard.NewRateGuard(route, "memory", limiter, policy, log), limiter.Stop
	}
	capabilityGuard, stopCapability := newGuard("capability", cfg.RateLimit.Capability)
	defer stopCapability()
	telemetryGuard, stopTelemetry := newGuard("telemetry", cfg.RateLimit.Telemetry)
	defer stopTelemetry()
	sessionsGuard, stopSessions := newGuard("sessions", cfg.RateLimit.Sessions)
	defer stopSessions()
	toolsGuard, stopTools := newGuard("tools", cfg.RateLimit.Tools)
	defer stopTools()

	// --- Authentication ---
	var authenticator *auth.Authenticator
	switch {
	case cfg.Supabase.JWTSecret != "":
		authenticator = auth.NewAuthenticator(cfg.Auth.CookieName, log,
			auth.WithJWTVerifier(auth.NewJWTVerifier(cfg.Supabase.JWTSecret)))
	case cfg.Supabase.URL != "":
		opts := []auth.Option{
			auth.WithResolver(auth.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, config.GetDuration(cfg.Supabase.Timeout))),
		}
		if rdb != nil {
			opts = append(opts, auth.WithCache(rdb, config.GetDuration(cfg.Auth.CacheTTL)))
		}
		authenticator = auth.NewAuthenticator(cfg.Auth.CookieName, log, opts...)
	default:
		zapLog.Warn("no supabase settings, dashboard routes disabled")
	}

	obs := observability.New(serviceName, log)
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Warn("metrics shutdown failed", zap.Error(err))
		}
	}()

	deps := server.Dependencies{
		Logger:          log,
		Observability:   obs,
		Registry:        taxonomy.NewRegistry(rb),
		Engine:          engine,
		Auth:            authenticator,
		Tools:           toolRegistry,
		CapabilityGuard: capabilityGuard,
		TelemetryGuard:  telemetryGuard,
		SessionsGuard:   sessionsGuard,
		ToolsGuard:      toolsGuard,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Readiness:       readiness,
	}
	if recorder != nil {
		deps.Recorder = recorder
	}
	if pg != nil {
		deps.Sessions = sessions.NewService(sessions.NewPostgresStore(pg), log)
		deps.Usage = usage.NewService(usage.NewPostgresStore(pg), log)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.NewRouter(deps),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		IdleTimeout:  config.GetDuration(cfg.Server.IdleTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if recorder != nil {
		if err := recorder.Close(shutdownCtx); err != nil {
			zapLog.Warn("usage recorder did not drain", zap.Error(err))
		}
	}

	zapLog.Info("Capability explorer stopped gracefully")
}

func loadRulebook(path string) (*rulebook.Rulebook, error) {
	if path == "" {
		return rulebook.Default()
	}
	return rulebook.Load(path)
}
