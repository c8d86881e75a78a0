package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8090" {
		t.Fatalf("default port: got %q", cfg.Port)
	}
	if cfg.RateBurst != 20 {
		t.Fatalf("default burst: got %d", cfg.RateBurst)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	body := []byte("port: \"9000\"\ndashboardUrl: http://file.example\nrateRps: 5\nfirebase:\n  projectId: proj-from-file\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DASHBOARD_URL", "http://env.example")
	t.Setenv("FIREBASE_ADMIN_PRIVATE_KEY", `line1\nline2`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("file port: got %q", cfg.Port)
	}
	if cfg.DashboardURL != "http://env.example" {
		t.Fatalf("env should override file, got %q", cfg.DashboardURL)
	}
	if cfg.RateRPS != 5 {
		t.Fatalf("rateRps: got %v", cfg.RateRPS)
	}
	if cfg.Firebase.ProjectID != "proj-from-file" {
		t.Fatalf("firebase projectId: got %q", cfg.Firebase.ProjectID)
	}
	if cfg.Firebase.PrivateKey != "line1\nline2" {
		t.Fatalf("private key newlines not unescaped: %q", cfg.Firebase.PrivateKey)
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte(": not yaml ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
