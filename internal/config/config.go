package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Store backend names accepted by STORE_BACKEND.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

type Config struct {
	Server  ServerConfig  `env:",prefix=SERVER_"`
	Backend BackendConfig `env:",prefix=BACKEND_"`
	Store   StoreConfig   `env:",prefix=STORE_"`
	Redis   RedisConfig   `env:",prefix=REDIS_"`
	Polling PollingConfig `env:",prefix=POLL_"`
	CORS    CORSConfig    `env:",prefix=CORS_"`
	Env     string        `env:"ENV,default=development"`
}

// ServerConfig configures the local bridge HTTP server the UI talks to.
type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=127.0.0.1"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

// BackendConfig configures the TrialConnect backend gateway.
type BackendConfig struct {
	BaseURL        string   `env:"BASE_URL,default=http://localhost:5000"`
	RequestTimeout Duration `env:"REQUEST_TIMEOUT,default=15s"`
}

// StoreConfig selects the handoff/session store backend.
type StoreConfig struct {
	Backend string `env:"BACKEND,default=memory"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// PollingConfig drives the inbox refresh loop.
type PollingConfig struct {
	Interval    Duration `env:"INTERVAL,default=3s"`
	TickTimeout Duration `env:"TICK_TIMEOUT,default=2s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Store.Backend != StoreBackendMemory && config.Store.Backend != StoreBackendRedis {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			StoreBackendMemory, StoreBackendRedis, config.Store.Backend)
	}

	if config.Polling.Interval.Duration <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
