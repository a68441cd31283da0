package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Matcher.Workers != 4 {
		t.Errorf("matcher.workers = %d, want 4", cfg.Matcher.Workers)
	}
	if cfg.Matcher.Weights.Concrete != 0.35 || cfg.Matcher.Weights.Genre != 0.10 {
		t.Errorf("matcher.weights = %+v", cfg.Matcher.Weights)
	}
	if cfg.Cache.QueryCapacity != 50 || cfg.Cache.VisionCapacity != 100 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Vision.Timeout != 30*time.Second {
		t.Errorf("vision.timeout = %v", cfg.Vision.Timeout)
	}
	if cfg.Database.DSN() != "./data/artmatch.db" {
		t.Errorf("database dsn = %q", cfg.Database.DSN())
	}
	if cfg.Matcher.Source != "wikidata" {
		t.Errorf("matcher.source = %q, want wikidata", cfg.Matcher.Source)
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	if _, err := Load(writeConfig(t, "matcher:\n  source: flickr\n")); err == nil {
		t.Fatal("expected unknown source error")
	}
	cfg, err := Load(writeConfig(t, "matcher:\n  source: catalog\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matcher.Source != "catalog" {
		t.Errorf("matcher.source = %q", cfg.Matcher.Source)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := writeConfig(t, "matcher:\n  weights:\n    concrete: 0.9\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected weight validation error")
	}
}

func TestSecretsFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/artmatch")

	cfg, err := Load(writeConfig(t, "database:\n  driver: postgres\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Vision.APIKey != "sk-test" {
		t.Errorf("vision.api_key = %q", cfg.Vision.APIKey)
	}
	if cfg.Database.DSN() != "postgres://u:p@localhost/artmatch" {
		t.Errorf("database dsn = %q", cfg.Database.DSN())
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
