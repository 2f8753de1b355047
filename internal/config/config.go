package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/quotekit/internal/assistant/openai"
	"github.com/davidbz/quotekit/internal/observability"
)

// Catalog source kinds.
const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Export    ExportConfig
	Events    EventsConfig
	Log       observability.LoggerConfig
	Assistant openai.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization,X-Request-Id"`
	ExposedHeaders   []string `env:"CORS_EXPOSED_HEADERS"   envSeparator:"," envDefault:"X-Request-Id,X-Trace-Id,Content-Disposition"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RedisConfig contains session store settings. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB"        envDefault:"0"`
	Namespace string `env:"REDIS_NAMESPACE" envDefault:"quotekit:"`
}

// SessionConfig contains wizard and chat session settings.
type SessionConfig struct {
	TTLSeconds   int `env:"SESSION_TTL"        envDefault:"1800"`
	HistoryLimit int `env:"CHAT_HISTORY_LIMIT" envDefault:"20"`
}

// TTL returns the session expiry as a duration.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CatalogConfig selects where the price catalog is loaded from.
type CatalogConfig struct {
	Source      string `env:"CATALOG_SOURCE" envDefault:"file"`
	File        string `env:"CATALOG_FILE"   envDefault:"configs/catalog.yaml"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// ExportConfig contains spreadsheet export settings.
type ExportConfig struct {
	Dir string `env:"EXPORT_DIR" envDefault:"exports"`
}

// EventsConfig toggles domain event logging.
type EventsConfig struct {
	Enabled bool `env:"EVENTS_ENABLED" envDefault:"true"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*RedisConfig
	*SessionConfig
	*CatalogConfig
	*ExportConfig
	*EventsConfig
	*observability.LoggerConfig
	*openai.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Redis,
		&cfg.Session,
		&cfg.Catalog,
		&cfg.Export,
		&cfg.Events,
		&cfg.Log,
		&cfg.Assistant,
	}
}
