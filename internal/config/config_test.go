package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so the host environment cannot leak
// into a test. t.Setenv restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "ADDR", "REQUEST_TIMEOUT", "CORS_ORIGIN", "SEED_ENABLED", "ADMIN_SIGNUP",
		"STORE", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE", "FALLBACK_ENABLED",
		"JWT_SECRET", "TOKEN_TTL", "LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr: got %q", cfg.Server.Addr)
	}
	if cfg.Database.Store != StoreSQLite || !cfg.Database.FallbackEnabled {
		t.Errorf("Database: got %+v", cfg.Database)
	}
	if cfg.JWT.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: got %s", cfg.JWT.TokenTTL)
	}
	if cfg.Server.SeedEnabled {
		t.Error("seed must be off by default")
	}
	if !cfg.Server.AdminSignup {
		t.Error("admin signup must be on by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9090")
	t.Setenv("STORE", "memory")
	t.Setenv("FALLBACK_ENABLED", "false")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("SEED_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("ADMIN_SIGNUP", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Database.Store != StoreMemory {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Database.FallbackEnabled {
		t.Error("FALLBACK_ENABLED=false ignored")
	}
	if cfg.Server.AdminSignup {
		t.Error("ADMIN_SIGNUP=false ignored")
	}
	if cfg.JWT.TokenTTL != 2*time.Hour || !cfg.Server.SeedEnabled || cfg.Log.Format != "json" {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadMalformedEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_TTL", "a day")
	t.Setenv("FALLBACK_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.TokenTTL != 24*time.Hour || !cfg.Database.FallbackEnabled {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":7000"
  cors_origin: "https://green.campus.edu"
database:
  store: mongo
  mongo_database: campus
jwt:
  secret: from-file
  token_ttl: 1h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Server.CORSOrigin != "https://green.campus.edu" {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.Database.Store != StoreMongo || cfg.Database.MongoDatabase != "campus" {
		t.Errorf("database: %+v", cfg.Database)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Database.MongoURI != "mongodb://127.0.0.1:27017" {
		t.Errorf("MongoURI: got %q", cfg.Database.MongoURI)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("env must win over file, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.TokenTTL != time.Hour {
		t.Errorf("TokenTTL: got %s", cfg.JWT.TokenTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Database.Store = "postgres" }},
		{"empty secret", func(c *Config) { c.JWT.Secret = "" }},
		{"zero ttl", func(c *Config) { c.JWT.TokenTTL = 0 }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}
