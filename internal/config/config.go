// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	DocService DocServiceConfig
	Upload     UploadConfig
	Export     ExportConfig
	Session    SessionConfig
	Database   DatabaseConfig
	Audit      AuditConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 3m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"3m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// DocServiceConfig holds settings for the external document service.
type DocServiceConfig struct {
	// URL is the service base URL (required)
	// Supports both DOCSERVICE_URL and API_URL env vars for compatibility
	URL string `env:"DOCSERVICE_URL" envAlt:"API_URL" required:"true"`

	// Timeout bounds a single upload or export round trip (default: 90s)
	Timeout time.Duration `env:"DOCSERVICE_TIMEOUT" default:"90s"`

	// MaxConcurrent is the maximum number of parallel round trips (default: 4)
	MaxConcurrent int `env:"DOCSERVICE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a round-trip slot (default: 30s)
	MaxWaitTime time.Duration `env:"DOCSERVICE_MAX_WAIT_TIME" default:"30s"`
}

// UploadConfig holds document selection limits.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one document in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"50MB" unit:"bytes"`

	// MaxRequestSize caps a whole selection request in bytes (default: 160MB)
	MaxRequestSize int64 `env:"UPLOAD_MAX_REQUEST_SIZE" default:"160MB" unit:"bytes"`
}

// ExportConfig holds export artifact settings.
type ExportConfig struct {
	// Filename is the name the summary document is saved under
	Filename string `env:"EXPORT_FILENAME" default:"督导工作情况汇总.docx"`

	// DownloadTTL is how long an unclaimed download link stays valid (default: 2m)
	DownloadTTL time.Duration `env:"EXPORT_DOWNLOAD_TTL" default:"2m"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// CookieName is the session cookie name (default: dutysummary_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"dutysummary_session"`

	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are dropped (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// MaxSessions caps live sessions; the oldest idle one is evicted (default: 1000)
	MaxSessions int `env:"SESSION_MAX" default:"1000"`

	// SecureCookie sets the Secure flag on the session cookie (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// DatabaseConfig holds audit database connection settings.
// Auditing to PostgreSQL is enabled only when URL is set.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// AuditConfig holds audit retention settings.
type AuditConfig struct {
	// RetentionDays is days to keep audit entries (default: 90)
	RetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"90"`

	// BatchSize is rows to delete per purge batch (default: 5000)
	BatchSize int `env:"AUDIT_BATCH_SIZE" default:"5000"`

	// CheckInterval is how often to run the purge job (default: 24h)
	CheckInterval time.Duration `env:"AUDIT_CHECK_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// RoundTripLimit is requests per minute for submit and export (default: 10)
	RoundTripLimit int `env:"RATE_LIMIT_ROUND_TRIP" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the /api endpoints with X-API-Key (default: true)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"true"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
