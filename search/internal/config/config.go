package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains runtime configuration for the musicsearch server.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream" mapstructure:"upstream"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	RateLimit RateLimitConfig `yaml:"ratelimit" mapstructure:"ratelimit"`
	NATS      NATSConfig      `yaml:"nats" mapstructure:"nats"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// ServerConfig captures HTTP server settings.
type ServerConfig struct {
	Port                int `yaml:"port" mapstructure:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// UpstreamConfig describes the third-party music search API.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	// Policy is the overlap policy: concurrent or coalesce.
	Policy string `yaml:"policy" mapstructure:"policy"`
	// LogBody includes the raw upstream payload in diagnostic log lines.
	LogBody bool `yaml:"log_body" mapstructure:"log_body"`
}

func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// RateLimitConfig configures the per-client Redis limiter.
type RateLimitConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	RedisURL      string `yaml:"redis_url" mapstructure:"redis_url"`
	Requests      int    `yaml:"requests" mapstructure:"requests"`
	WindowSeconds int    `yaml:"window_seconds" mapstructure:"window_seconds"`
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// NATSConfig captures NATS connection settings for the diagnostics bus.
type NATSConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxReconnects int    `yaml:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait int    `yaml:"reconnect_wait_seconds" mapstructure:"reconnect_wait_seconds"`
}

// ReconnectWaitDuration returns the reconnect wait as a time.Duration.
func (n NATSConfig) ReconnectWaitDuration() time.Duration {
	return time.Duration(n.ReconnectWait) * time.Second
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return errors.New("upstream.timeout_seconds must not be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			return errors.New("ratelimit.requests must be positive")
		}
		if c.RateLimit.WindowSeconds <= 0 {
			return errors.New("ratelimit.window_seconds must be positive")
		}
	}
	return nil
}

// Load reads configuration from the provided path and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)

	v.SetDefault("upstream.base_url", "https://api.apiopen.top/searchMusic")
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("upstream.user_agent", "musicsearch/0.1")
	v.SetDefault("upstream.max_body_bytes", 4<<20)
	v.SetDefault("upstream.policy", "concurrent")
	v.SetDefault("upstream.log_body", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.redis_url", "redis://localhost:6379/0")
	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window_seconds", 60)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.max_reconnects", -1) // Infinite reconnects
	v.SetDefault("nats.reconnect_wait_seconds", 2)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/musicsearch")
	}

	v.SetEnvPrefix("MUSICSEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
