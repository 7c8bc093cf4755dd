// Package config resolves runtime settings from an optional YAML file and the
// environment. Priority is defaults, then file, then environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when BLOODZY_CONFIG is unset.
const DefaultPath = "bloodzy.yaml"

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Search   SearchConfig
	Logging  LoggingConfig

	EnableTestData bool
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

// MongoConfig points at the donor collection. An empty URI selects the
// in-memory donor store.
type MongoConfig struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	DonorsCollection string `yaml:"donors_collection"`
}

// RedisConfig enables the statistics cache when URL is set.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	StatsTTL time.Duration `yaml:"stats_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	AdminKey  string        `yaml:"-"`
}

// SearchConfig tunes the donor matcher.
type SearchConfig struct {
	IncludeUnavailable bool
	DefaultRadiusKm    float64
	MaxRadiusKm        float64
	ResultLimit        int
	StoreTimeout       time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	IncludeCaller bool   `yaml:"include_caller"`
}

// fileConfig mirrors the YAML layout.
type fileConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   fileSearch     `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type fileSearch struct {
	IncludeUnavailable *bool         `yaml:"include_unavailable"`
	DefaultRadiusKm    float64       `yaml:"default_radius_km"`
	MaxRadiusKm        float64       `yaml:"max_radius_km"`
	ResultLimit        int           `yaml:"result_limit"`
	StoreTimeout       time.Duration `yaml:"store_timeout"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Mongo: MongoConfig{
			Database:         "bloodzy",
			DonorsCollection: "donors",
		},
		Redis: RedisConfig{StatsTTL: 24 * time.Hour},
		Auth:  AuthConfig{TokenTTL: 24 * time.Hour},
		Search: SearchConfig{
			IncludeUnavailable: true,
			DefaultRadiusKm:    5,
			MaxRadiusKm:        100,
			ResultLimit:        500,
			StoreTimeout:       5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load resolves configuration. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Path returns the config file location from BLOODZY_CONFIG or DefaultPath.
func Path() string {
	return valueOrDefault("BLOODZY_CONFIG", DefaultPath)
}

func (c *Config) applyFile(raw []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.HTTP.Host != "" {
		c.HTTP.Host = f.HTTP.Host
	}
	if f.HTTP.Port > 0 {
		c.HTTP.Port = f.HTTP.Port
	}
	setDuration(&c.HTTP.ReadTimeout, f.HTTP.ReadTimeout)
	setDuration(&c.HTTP.WriteTimeout, f.HTTP.WriteTimeout)
	setDuration(&c.HTTP.IdleTimeout, f.HTTP.IdleTimeout)
	setDuration(&c.HTTP.ShutdownTimeout, f.HTTP.ShutdownTimeout)
	if len(f.HTTP.AllowedOrigins) > 0 {
		c.HTTP.AllowedOrigins = f.HTTP.AllowedOrigins
	}

	setString(&c.Postgres.URL, f.Postgres.URL)
	setString(&c.Mongo.URI, f.Mongo.URI)
	setString(&c.Mongo.Database, f.Mongo.Database)
	setString(&c.Mongo.DonorsCollection, f.Mongo.DonorsCollection)
	setString(&c.Redis.URL, f.Redis.URL)
	setDuration(&c.Redis.StatsTTL, f.Redis.StatsTTL)
	setDuration(&c.Auth.TokenTTL, f.Auth.TokenTTL)

	if f.Search.IncludeUnavailable != nil {
		c.Search.IncludeUnavailable = *f.Search.IncludeUnavailable
	}
	if f.Search.DefaultRadiusKm > 0 {
		c.Search.DefaultRadiusKm = f.Search.DefaultRadiusKm
	}
	if f.Search.MaxRadiusKm > 0 {
		c.Search.MaxRadiusKm = f.Search.MaxRadiusKm
	}
	if f.Search.ResultLimit > 0 {
		c.Search.ResultLimit = f.Search.ResultLimit
	}
	setDuration(&c.Search.StoreTimeout, f.Search.StoreTimeout)

	setString(&c.Logging.Level, f.Logging.Level)
	setString(&c.Logging.Format, f.Logging.Format)
	c.Logging.IncludeCaller = c.Logging.IncludeCaller || f.Logging.IncludeCaller
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Host = valueOrDefault("SERVER_HOST", c.HTTP.Host)
	port, err := parsePort("PORT", c.HTTP.Port)
	if err != nil {
		return err
	}
	c.HTTP.Port = port
	c.HTTP.AllowedOrigins = parseCSV("SERVER_ALLOWED_ORIGINS", c.HTTP.AllowedOrigins)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &c.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &c.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &c.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout},
		{"STATS_CACHE_TTL", &c.Redis.StatsTTL},
		{"TOKEN_TTL", &c.Auth.TokenTTL},
		{"SEARCH_STORE_TIMEOUT", &c.Search.StoreTimeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return err
		}
	}

	c.Postgres.URL = valueOrDefault("DATABASE_URL", c.Postgres.URL)
	c.Mongo.URI = valueOrDefault("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = valueOrDefault("MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.DonorsCollection = valueOrDefault("MONGO_DONOR_COLLECTION", c.Mongo.DonorsCollection)
	c.Redis.URL = valueOrDefault("REDIS_URL", c.Redis.URL)
	c.Auth.JWTSecret = valueOrDefault("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.AdminKey = valueOrDefault("ADMIN_API_KEY", c.Auth.AdminKey)

	c.Search.IncludeUnavailable = parseBoolWithDefault("SEARCH_INCLUDE_UNAVAILABLE", c.Search.IncludeUnavailable)
	if c.Search.DefaultRadiusKm, err = parseFloat("SEARCH_DEFAULT_RADIUS_KM", c.Search.DefaultRadiusKm); err != nil {
		return err
	}
	if c.Search.MaxRadiusKm, err = parseFloat("SEARCH_MAX_RADIUS_KM", c.Search.MaxRadiusKm); err != nil {
		return err
	}
	c.Search.ResultLimit = parseIntWithDefault("SEARCH_RESULT_LIMIT", c.Search.ResultLimit)

	c.Logging.Level = valueOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = valueOrDefault("LOG_FORMAT", c.Logging.Format)
	c.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", c.Logging.IncludeCaller)

	c.EnableTestData = parseBoolWithDefault("ENABLE_TEST_DATA", c.EnableTestData)
	return nil
}

func (c Config) validate() error {
	var missing []string
	if c.Postgres.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.Search.DefaultRadiusKm <= 0 || c.Search.MaxRadiusKm < c.Search.DefaultRadiusKm {
		return fmt.Errorf("search radius: default %.1f km must be positive and within max %.1f km",
			c.Search.DefaultRadiusKm, c.Search.MaxRadiusKm)
	}
	return nil
}

// Addr is the listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return f, nil
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func parseCSV(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
