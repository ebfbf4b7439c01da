// Package config loads server settings from the environment, optionally
// layered over a YAML file.
//
// Precedence, lowest to highest: built-in defaults, the file named by
// CONFIG_FILE, environment variables. A value set in the environment always
// wins, so a container can override a single key without editing the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigin     string        `yaml:"cors_origin"`
	// SeedEnabled registers POST /api/admin/seed.
	SeedEnabled bool `yaml:"seed_enabled"`
	// AdminSignup lets POST /api/auth/register create admin accounts.
	AdminSignup bool `yaml:"admin_signup"`
}

type DatabaseConfig struct {
	// Store is one of sqlite, mongo or memory.
	Store string `yaml:"store"`
	// DSN is the SQLite data source.
	DSN           string `yaml:"dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	// FallbackEnabled switches to the in-memory store when the configured
	// backend cannot be reached at startup.
	FallbackEnabled bool `yaml:"fallback_enabled"`
}

type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

// Defaults returns the configuration used when nothing is set.
//
// DSN uses modernc.org/sqlite URI parameters:
//
//	_pragma=foreign_keys(1)    enforce FK constraints on every connection
//	_pragma=journal_mode(WAL)  readers don't block writers
//	_pragma=busy_timeout(5000) wait up to 5 s instead of returning SQLITE_BUSY
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			CORSOrigin:     "*",
			AdminSignup:    true,
		},
		Database: DatabaseConfig{
			Store:           StoreSQLite,
			DSN:             "ewaste.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
			MongoURI:        "mongodb://127.0.0.1:27017",
			MongoDatabase:   "ewaste_management",
			FallbackEnabled: true,
		},
		JWT: JWTConfig{
			Secret:   "changeme-use-a-real-secret-in-production",
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Server.Addr = getEnv("ADDR", cfg.Server.Addr)
	cfg.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.CORSOrigin = getEnv("CORS_ORIGIN", cfg.Server.CORSOrigin)
	cfg.Server.SeedEnabled = getEnvBool("SEED_ENABLED", cfg.Server.SeedEnabled)
	cfg.Server.AdminSignup = getEnvBool("ADMIN_SIGNUP", cfg.Server.AdminSignup)

	cfg.Database.Store = getEnv("STORE", cfg.Database.Store)
	cfg.Database.DSN = getEnv("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.MongoURI = getEnv("MONGO_URI", cfg.Database.MongoURI)
	cfg.Database.MongoDatabase = getEnv("MONGO_DATABASE", cfg.Database.MongoDatabase)
	cfg.Database.FallbackEnabled = getEnvBool("FALLBACK_ENABLED", cfg.Database.FallbackEnabled)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.JWT.TokenTTL)

	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. Keys missing from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Store {
	case StoreSQLite, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("config: unknown store %q (want sqlite, mongo or memory)", c.Database.Store)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT secret must not be empty")
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("config: token TTL must be positive, got %s", c.JWT.TokenTTL)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("config: request timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
