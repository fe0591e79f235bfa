// Package config provides centralized configuration management for the
// search server. Settings come from environment variables with defaults
// and are validated on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CachePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Search   SearchConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 45s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"45s"`
}

// SourceConfig locates the published delivery sheet.
type SourceConfig struct {
	// URL is the CSV export link, or a local file path (required)
	URL string `env:"SHEET_CSV_URL" envAlt:"SOURCE_URL" required:"true"`

	// FetchTimeout bounds one download of the export (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// MaxBytes caps the size of the export (default: 50MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"52428800"`
}

// CacheConfig selects where parsed tables are memoized.
type CacheConfig struct {
	// Backend is one of none, memory, postgres (default: memory)
	Backend string `env:"CACHE_BACKEND" default:"memory"`
}

// DatabaseConfig holds connection settings for the postgres cache backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Required only when
	// CACHE_BACKEND=postgres; DATABASE_URL and DB_URL are both accepted.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SearchConfig holds query and display policy.
type SearchConfig struct {
	// DisplayLimit is how many trailing rows a result shows; 0 shows all (default: 5)
	DisplayLimit int `env:"SEARCH_DISPLAY_LIMIT" default:"5"`

	// MatchAllOnEmpty makes an empty product search return every row (default: false)
	MatchAllOnEmpty bool `env:"SEARCH_MATCH_ALL_ON_EMPTY" default:"false"`
}

// ExportConfig bounds concurrent CSV/XLSX downloads.
type ExportConfig struct {
	// MaxConcurrent is the number of exports built at once (default: 2)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long a request waits for an export slot (default: 10s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For / X-Real-IP headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
