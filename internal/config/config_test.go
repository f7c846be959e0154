package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default()
	if cfg.NNTP.Port == 0 || cfg.NNTP.MaxConns == 0 {
		t.Fatalf("expected nonzero NNTP defaults, got %+v", cfg.NNTP)
	}
	if cfg.UsersDB == "" {
		t.Fatalf("expected a default users db path")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.json")
	partial := map[string]any{
		"hostname": "news.example.org",
		"nntp":     map[string]any{"port": 1120},
	}
	data, err := json.Marshal(partial)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hostname != "news.example.org" {
		t.Fatalf("expected hostname override, got %q", cfg.Hostname)
	}
	if cfg.NNTP.Port != 1120 {
		t.Fatalf("expected port override, got %d", cfg.NNTP.Port)
	}
	if cfg.NNTP.MaxConns != DefaultNNTPServerMaxConns {
		t.Fatalf("expected default max_connections to survive overlay, got %d", cfg.NNTP.MaxConns)
	}
}
