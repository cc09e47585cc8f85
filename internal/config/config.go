package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings.
type Config struct {
	APIURL          string
	Timeout         time.Duration
	StateDir        string
	RefreshInterval time.Duration
	LikeRetries     int
	Theme           string
	Storage         Storage
}

// Storage selects the persistence backend for the caches.
type Storage struct {
	Backend string
	DSN     string
}

const (
	defaultConfigPath      = "~/.config/uniespoverflow/config.toml"
	defaultStateDir        = "~/.local/state/uniespoverflow"
	defaultAPIURL          = "http://127.0.0.1:3000"
	defaultTimeout         = 10 * time.Second
	defaultRefreshInterval = 30 * time.Second
	defaultLikeRetries     = 3
	defaultBackend         = "file"
	defaultTheme           = "Nightfox"
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIURL:          defaultAPIURL,
		Timeout:         defaultTimeout,
		StateDir:        mustExpand(defaultStateDir),
		RefreshInterval: defaultRefreshInterval,
		LikeRetries:     defaultLikeRetries,
		Theme:           defaultTheme,
		Storage:         Storage{Backend: defaultBackend},
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		Timeout         string `toml:"timeout"`
		StateDir        string `toml:"state_dir"`
		RefreshInterval string `toml:"refresh_interval"`
		LikeRetries     *int   `toml:"like_retries"`
		Theme           string `toml:"theme"`
		Storage         struct {
			Backend string `toml:"backend"`
			DSN     string `toml:"dsn"`
		} `toml:"storage"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if cfg.Timeout, err = parseDuration("timeout", raw.Timeout, defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = parseDuration("refresh_interval", raw.RefreshInterval, defaultRefreshInterval); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(raw.StateDir); v != "" {
		cfg.StateDir = mustExpand(v)
	}
	if raw.LikeRetries != nil {
		if *raw.LikeRetries < 1 {
			return Config{}, fmt.Errorf("parse config: like_retries must be at least 1")
		}
		cfg.LikeRetries = *raw.LikeRetries
	}

	if v := strings.TrimSpace(raw.Theme); v != "" {
		cfg.Theme = v
	}

	switch backend := strings.ToLower(strings.TrimSpace(raw.Storage.Backend)); backend {
	case "":
	case "file", "sqlite", "postgres":
		cfg.Storage.Backend = backend
	default:
		return Config{}, fmt.Errorf("parse config: unknown storage backend %q", raw.Storage.Backend)
	}
	cfg.Storage.DSN = strings.TrimSpace(raw.Storage.DSN)
	if cfg.Storage.Backend == "postgres" && cfg.Storage.DSN == "" {
		return Config{}, fmt.Errorf("parse config: storage.dsn required for postgres backend")
	}

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", key)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
