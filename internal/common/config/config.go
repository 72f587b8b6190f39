// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Rulebook  RulebookConfig  `mapstructure:"rulebook"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	IdleTimeout     int    `mapstructure:"idle_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SupabaseConfig points at the hosted auth project.
type SupabaseConfig struct {
	URL       string `mapstructure:"url"`
	AnonKey   string `mapstructure:"anon_key"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// AuthConfig holds settings for resolving the authenticated user.
type AuthConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	CacheTTL   int    `mapstructure:"cache_ttl"` // milliseconds
}

// RateLimitConfig selects the limiter backend and the per-route presets.
type RateLimitConfig struct {
	Backend    string      `mapstructure:"backend"` // memory | redis
	KeyPrefix  string      `mapstructure:"key_prefix"`
	Capability LimitPreset `mapstructure:"capability"`
	Telemetry  LimitPreset `mapstructure:"telemetry"`
	Sessions   LimitPreset `mapstructure:"sessions"`
	Tools      LimitPreset `mapstructure:"tools"`
}

type LimitPreset struct {
	Limit  int `mapstructure:"limit"`
	Window int `mapstructure:"window"` // milliseconds
}

// UsageConfig holds settings for the asynchronous usage recorder.
type UsageConfig struct {
	Enabled       bool                     `mapstructure:"enabled"`
	QueueSize     int                      `mapstructure:"queue_size"`
	Workers       int                      `mapstructure:"workers"`
	WriteTimeout  int                      `mapstructure:"write_timeout"` // milliseconds
	Elasticsearch UsageElasticsearchConfig `mapstructure:"elasticsearch"`
}

type UsageElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// RulebookConfig optionally overrides the embedded rulebook.
type RulebookConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
