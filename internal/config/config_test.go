package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.Timeout != defaultTimeout || cfg.LikeRetries != defaultLikeRetries {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
	wantDir, err := expandPath(defaultStateDir)
	if err != nil {
		t.Fatalf("expandPath(defaultStateDir) returned error: %v", err)
	}
	if cfg.StateDir != wantDir || !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantDir)
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  https://forum.example.com/api  "
timeout = "3s"
refresh_interval = " 1m "
state_dir = "  ~/.overflow  "
like_retries = 5
theme = " Slate "

[storage]
backend = " SQLite "
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://forum.example.com/api" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second || cfg.RefreshInterval != time.Minute {
		t.Fatalf("durations = %v %v", cfg.Timeout, cfg.RefreshInterval)
	}
	if cfg.StateDir != filepath.Join(home, ".overflow") {
		t.Fatalf("StateDir = %q, want under HOME", cfg.StateDir)
	}
	if cfg.LikeRetries != 5 || cfg.Storage.Backend != "sqlite" || cfg.Theme != "Slate" {
		t.Fatalf("cfg = %#v", cfg)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
api_url = "   "
timeout = ""
[storage]
backend = ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.Timeout != defaultTimeout || cfg.Storage.Backend != "file" {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid toml", `api_url = [`, "parse config"},
		{"bad duration", `timeout = "soon"`, "timeout"},
		{"negative duration", `refresh_interval = "-1s"`, "must be positive"},
		{"zero retries", `like_retries = 0`, "like_retries"},
		{"unknown backend", "[storage]\nbackend = \"redis\"", "unknown storage backend"},
		{"postgres without dsn", "[storage]\nbackend = \"postgres\"", "storage.dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if want := filepath.Join(home, "a/b"); got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
