// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Asset environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
	Registry RegistryConfig `yaml:"registry"`
	Render   RenderConfig   `yaml:"render"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig configures sessions.
type AuthConfig struct {
	// JWTSecret signs session tokens. When empty a random secret is used
	// and sessions do not survive a restart.
	JWTSecret    string        `yaml:"jwt_secret,omitempty"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// CacheConfig configures the site config cache.
type CacheConfig struct {
	Driver    string        `yaml:"driver"` // "memory" or "redis"
	ConfigTTL time.Duration `yaml:"config_ttl"`
	Redis     RedisConfig   `yaml:"redis,omitempty"`
}

// RedisConfig configures the shared cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RegistryConfig configures the page registry.
type RegistryConfig struct {
	// RefreshInterval reloads the registry periodically. Zero disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// RenderConfig configures page assembly.
type RenderConfig struct {
	// Concurrency limits parallel module renders per page. Zero is unlimited.
	Concurrency int `yaml:"concurrency"`
}

// AssetsConfig configures the public directory.
type AssetsConfig struct {
	PublicDir   string `yaml:"public_dir"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"

	// File enables a rotating log file next to console output.
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a configuration holding every default value.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{DSN: "zacre.db"},
		Auth: AuthConfig{
			SessionTTL: 168 * time.Hour,
			CookieName: "token",
		},
		Cache: CacheConfig{
			Driver:    CacheMemory,
			ConfigTTL: 24 * time.Hour,
			Redis:     RedisConfig{Prefix: "zacre:config:"},
		},
		Assets: AssetsConfig{
			PublicDir:   "public",
			Environment: EnvDevelopment,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	ZACRE_SERVER_HOST          - Server host (default: 0.0.0.0)
//	ZACRE_SERVER_PORT          - Server port (default: 8080)
//	ZACRE_DATABASE_DSN         - Database path (default: zacre.db)
//	ZACRE_AUTH_JWT_SECRET      - Session signing secret
//	ZACRE_AUTH_SESSION_TTL     - Session lifetime (default: 168h)
//	ZACRE_AUTH_COOKIE_SECURE   - Mark the session cookie Secure
//	ZACRE_CACHE_DRIVER         - memory or redis (default: memory)
//	ZACRE_CACHE_CONFIG_TTL     - Config cache TTL (default: 24h)
//	ZACRE_REDIS_ADDR           - Redis address
//	ZACRE_REDIS_PASSWORD       - Redis password
//	ZACRE_REDIS_DB             - Redis database number
//	ZACRE_REGISTRY_REFRESH     - Page registry refresh interval (default: 0)
//	ZACRE_RENDER_CONCURRENCY   - Parallel module renders (default: unlimited)
//	ZACRE_PUBLIC_DIR           - Public directory (default: public)
//	ZACRE_ENV                  - development or production
//	ZACRE_LOG_LEVEL            - debug, info, warn, error (default: info)
//	ZACRE_LOG_FORMAT           - json or console (default: json)
//	ZACRE_LOG_FILE             - Rotating log file path
//	ZACRE_METRICS_ENABLED      - Enable /metrics (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Defaults()

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to
// environment variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies ZACRE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("ZACRE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ZACRE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ZACRE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("ZACRE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("ZACRE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Auth configuration
	if v := os.Getenv("ZACRE_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ZACRE_AUTH_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.SessionTTL = d
		}
	}
	if v := os.Getenv("ZACRE_AUTH_COOKIE_SECURE"); v != "" {
		cfg.Auth.CookieSecure = parseBool(v)
	}

	// Cache configuration
	if v := os.Getenv("ZACRE_CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}
	if v := os.Getenv("ZACRE_CACHE_CONFIG_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ConfigTTL = d
		}
	}
	if v := os.Getenv("ZACRE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("ZACRE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("ZACRE_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Redis.DB = n
		}
	}

	if v := os.Getenv("ZACRE_REGISTRY_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Registry.RefreshInterval = d
		}
	}
	if v := os.Getenv("ZACRE_RENDER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Concurrency = n
		}
	}

	// Assets configuration
	if v := os.Getenv("ZACRE_PUBLIC_DIR"); v != "" {
		cfg.Assets.PublicDir = v
	}
	if v := os.Getenv("ZACRE_ENV"); v != "" {
		cfg.Assets.Environment = v
	}

	// Logging configuration
	if v := os.Getenv("ZACRE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ZACRE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ZACRE_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("ZACRE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// setDefaults fills fields a config file explicitly zeroed.
func setDefaults(cfg *Config) {
	d := Defaults()

	if cfg.Server.Host == "" {
		cfg.Server.Host = d.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = d.Server.WriteTimeout
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = d.Database.DSN
	}

	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = d.Auth.SessionTTL
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = d.Auth.CookieName
	}

	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = d.Cache.Driver
	}
	if cfg.Cache.ConfigTTL == 0 {
		cfg.Cache.ConfigTTL = d.Cache.ConfigTTL
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = d.Cache.Redis.Prefix
	}

	if cfg.Assets.PublicDir == "" {
		cfg.Assets.PublicDir = d.Assets.PublicDir
	}
	if cfg.Assets.Environment == "" {
		cfg.Assets.Environment = d.Assets.Environment
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = d.Metrics.Path
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Cache.Driver {
	case CacheMemory:
	case CacheRedis:
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required when cache.driver is 'redis'")
		}
	default:
		return fmt.Errorf("cache.driver must be 'memory' or 'redis', got %q", cfg.Cache.Driver)
	}

	if cfg.Assets.Environment != EnvDevelopment && cfg.Assets.Environment != EnvProduction {
		return fmt.Errorf("assets.environment must be 'development' or 'production', got %q", cfg.Assets.Environment)
	}

	if cfg.Registry.RefreshInterval < 0 {
		return fmt.Errorf("registry.refresh_interval must not be negative")
	}
	if cfg.Render.Concurrency < 0 {
		return fmt.Errorf("render.concurrency must not be negative")
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}
