package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the runtime settings for the bridge. Every value comes from
// the environment; the env tags name the variables and their defaults.
type Config struct {
	// APIKey authenticates requests against the Open Supply Hub API.
	APIKey string `env:"OPEN_SUPPLY_HUB_API_KEY,required"`

	// BaseURL is the Open Supply Hub API root.
	BaseURL string `env:"OPEN_SUPPLY_HUB_API_URL,default=https://staging.opensupplyhub.org/api"`

	// RequestTimeout bounds each upstream HTTP request.
	RequestTimeout time.Duration `env:"OS_HUB_REQUEST_TIMEOUT,default=30s"`

	// LogLevel selects the diagnostic log level (debug, info, warn, error).
	LogLevel string `env:"OS_HUB_LOG_LEVEL,default=info"`

	// RateLimit caps handled requests per second. Zero disables limiting.
	RateLimit int `env:"OS_HUB_RATE_LIMIT,default=0"`

	// RateBurst is the token bucket capacity when limiting is enabled.
	RateBurst int `env:"OS_HUB_RATE_BURST,default=10"`

	// ListenAddr switches the server into WebSocket mode when set,
	// e.g. ":8765". Empty means stdio.
	ListenAddr string `env:"OS_HUB_LISTEN_ADDR"`
}

// FromEnv loads configuration from the environment. A missing
// OPEN_SUPPLY_HUB_API_KEY is an error so the server fails at startup
// rather than on the first upstream call.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return &cfg, nil
}
