package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Server.Address)
	}
	if cfg.Remote.Backend != BackendMemory {
		t.Errorf("Expected memory backend, got %s", cfg.Remote.Backend)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("Expected 1h expiration, got %v", cfg.JWT.Expiration)
	}
	if cfg.Backup.URLExpiry != 15*time.Minute {
		t.Errorf("Expected 15m url expiry, got %v", cfg.Backup.URLExpiry)
	}
	if cfg.S3.Enabled() {
		t.Error("Expected S3 disabled without a bucket")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  address: \":9090\"\nremote:\n  backend: mongo\n  mongo:\n    name: tracker\njwt:\n  expiration: 30m\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("S3_BUCKET_NAME", "exports-bucket")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Address != ":9090" || cfg.Remote.Backend != BackendMongo || cfg.Remote.Mongo.Name != "tracker" {
		t.Errorf("Expected values from file, got %+v", cfg)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("Expected 30m, got %v", cfg.JWT.Expiration)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("Expected secret from env, got %q", cfg.JWT.Secret)
	}
	if !cfg.S3.Enabled() {
		t.Error("Expected S3 enabled from env bucket")
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("REMOTE_BACKEND", "cassandra")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Error("Expected unknown backend to be rejected")
	}
}
