package server

import (
	"errors"
	"time"
)

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address.
	// Default: ":8000"
	Addr string

	// RateLimit is the sustained number of chat requests per second across
	// all clients. Zero disables rate limiting.
	// Default: 5
	RateLimit float64

	// Burst is the number of chat requests allowed above RateLimit at once.
	// Default: 10
	Burst int

	// ReadTimeout bounds reading a request. Responses are streamed and have
	// no write timeout.
	// Default: 30s
	ReadTimeout time.Duration

	// HistoryLimit caps how many messages the session endpoint returns.
	// Default: 100
	HistoryLimit int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8000",
		RateLimit:    5,
		Burst:        10,
		ReadTimeout:  30 * time.Second,
		HistoryLimit: 100,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("server config: Addr is required")
	}
	if c.RateLimit < 0 {
		return errors.New("server config: RateLimit must not be negative")
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		return errors.New("server config: Burst must be positive when rate limiting")
	}
	if c.HistoryLimit <= 0 {
		return errors.New("server config: HistoryLimit must be positive")
	}
	return nil
}
