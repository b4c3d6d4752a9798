// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay.
package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"

	"github.com/Tyrowin/roomrelay/internal/chat"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings. List-valued settings are
// comma-separated strings in the environment.
type Config struct {
	Port            string        `env:"SERVER_PORT"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE"`
	LogLevel        string        `env:"LOG_LEVEL"`
	DefaultRooms    string        `env:"DEFAULT_ROOMS"`
	RoomCollision   string        `env:"ROOM_COLLISION_POLICY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultSendBufferSize  = 256
	defaultBurst           = 5
	defaultRefillInterval  = time.Second
	defaultShutdownTimeout = 10 * time.Second
)

func defaultConfig() Config {
	return Config{
		Port:            defaultPort,
		AllowedOrigins:  "*",
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		LogLevel:        "INFO",
		DefaultRooms:    "lobby,general,random",
		RoomCollision:   string(chat.CollisionOverwrite),
		ShutdownTimeout: defaultShutdownTimeout,
		RateLimitBurst:  defaultBurst,
		RateLimitRefill: defaultRefillInterval,
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config from environment variables. Unset
// variables keep their defaults; out-of-range values are clamped back.
func NewConfigFromEnv() (*Config, error) {
	cfg := defaultConfig()
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if _, err := cfg.CollisionPolicy(); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	return &cfg, nil
}

// Sanitize replaces unusable values with defaults.
func (c *Config) Sanitize() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = defaultBurst
	}
	if c.RateLimitRefill <= 0 {
		c.RateLimitRefill = defaultRefillInterval
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
}

// RateLimit returns the per-connection token bucket settings.
func (c *Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{Burst: c.RateLimitBurst, RefillInterval: c.RateLimitRefill}
}

// Origins returns the configured origin list, trimmed.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// DefaultRoomNames returns the rooms to create at startup.
func (c *Config) DefaultRoomNames() []string {
	return splitList(c.DefaultRooms)
}

// CollisionPolicy returns the configured room collision policy.
func (c *Config) CollisionPolicy() (chat.CollisionPolicy, error) {
	return chat.ParseCollisionPolicy(c.RoomCollision)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
