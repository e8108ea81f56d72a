package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Pages     PagesConfig     `mapstructure:"pages"`
	Debug     bool            `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig points at the SQLite response cache
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig controls the fetch cache tiers
type CacheConfig struct {
	StaleTime  time.Duration `mapstructure:"stale_time"`
	Persist    bool          `mapstructure:"persist"`
	PersistTTL time.Duration `mapstructure:"persist_ttl"`
}

// UpstreamConfig controls requests to the remote event service
type UpstreamConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// RateLimitConfig limits inbound API requests per client IP.
// Requests of 0 disables the limiter.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// SessionsConfig controls explorer session expiry
type SessionsConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// PagesConfig locates page definitions; an empty file uses the built-in pages
type PagesConfig struct {
	File string `mapstructure:"file"`
}

// Load loads configuration from defaults, an optional config file and
// EXPLORER_* environment variables. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("explorer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/quake-explorer")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info().Msg("No config file found, using environment variables and defaults")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	locations := []string{
		".env",
		".env.local",
		"../.env",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Info().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults registers every key so environment overrides are picked up by Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")

	v.SetDefault("database.path", "./data/explorer.db")

	v.SetDefault("cache.stale_time", "5m")
	v.SetDefault("cache.persist", true)
	v.SetDefault("cache.persist_ttl", "1h")

	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.initial_backoff", "500ms")
	v.SetDefault("upstream.max_backoff", "5s")
	v.SetDefault("upstream.requests_per_second", 5)
	v.SetDefault("upstream.burst", 5)
	v.SetDefault("upstream.user_agent", "quake-explorer/1.0")

	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", "1m")

	v.SetDefault("sessions.ttl", "30m")

	v.SetDefault("pages.file", "")

	v.SetDefault("debug", false)
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration error: %w", err)
	}

	if c.Cache.Persist && c.Database.Path == "" {
		return fmt.Errorf("database.path is required when cache.persist is enabled")
	}

	if c.Cache.StaleTime < 0 {
		return fmt.Errorf("cache.stale_time cannot be negative")
	}

	if c.Cache.Persist && c.Cache.PersistTTL <= 0 {
		return fmt.Errorf("cache.persist_ttl must be positive")
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream configuration error: %w", err)
	}

	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("ratelimit.requests cannot be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}

	return nil
}

// Validate checks the HTTP server settings
func (sc *ServerConfig) Validate() error {
	if sc.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if sc.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if sc.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	return nil
}

// Validate checks the upstream request settings
func (uc *UpstreamConfig) Validate() error {
	if uc.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if uc.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if uc.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if uc.MaxBackoff < uc.InitialBackoff {
		return fmt.Errorf("max_backoff must be greater than or equal to initial_backoff")
	}
	if uc.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}
	if uc.RequestsPerSecond > 0 && uc.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when requests_per_second is set")
	}
	return nil
}
