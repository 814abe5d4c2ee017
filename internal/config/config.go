// Package config loads tally's TOML configuration file.
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

// Config holds resolved settings. All paths are absolute.
type Config struct {
	Database  string
	PrefsFile string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	UndoWindow time.Duration
	IdleDim    time.Duration
}

const (
	defaultConfigPath = "~/.config/tally/config.toml"
	defaultDatabase   = "~/.config/tally/tally.db"
	defaultPrefsFile  = "~/.config/tally/prefs.toml"
	defaultLogFile    = "~/.local/state/tally/tally.log"

	defaultLogMaxSizeMB  = 5
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 28

	defaultUndoWindow = 4 * time.Second
	defaultIdleDim    = time.Minute
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Database:      mustExpand(defaultDatabase),
		PrefsFile:     mustExpand(defaultPrefsFile),
		LogFile:       mustExpand(defaultLogFile),
		LogMaxSizeMB:  defaultLogMaxSizeMB,
		LogMaxBackups: defaultLogMaxBackups,
		LogMaxAgeDays: defaultLogMaxAgeDays,
		UndoWindow:    defaultUndoWindow,
		IdleDim:       defaultIdleDim,
	}
}

// Load reads the config at path (the default path when empty), falling back to
// defaults for a missing file or missing fields.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

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
		Database      string `toml:"database"`
		PrefsFile     string `toml:"prefs_file"`
		LogFile       string `toml:"log_file"`
		LogMaxSizeMB  int    `toml:"log_max_size_mb"`
		LogMaxBackups int    `toml:"log_max_backups"`
		LogMaxAgeDays int    `toml:"log_max_age_days"`
		UndoWindow    string `toml:"undo_window"`
		IdleDim       string `toml:"idle_dim"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if p := strings.TrimSpace(raw.Database); p != "" {
		cfg.Database = mustExpand(p)
	}
	if p := strings.TrimSpace(raw.PrefsFile); p != "" {
		cfg.PrefsFile = mustExpand(p)
	}
	if p := strings.TrimSpace(raw.LogFile); p != "" {
		cfg.LogFile = mustExpand(p)
	}
	if raw.LogMaxSizeMB > 0 {
		cfg.LogMaxSizeMB = raw.LogMaxSizeMB
	}
	if raw.LogMaxBackups > 0 {
		cfg.LogMaxBackups = raw.LogMaxBackups
	}
	if raw.LogMaxAgeDays > 0 {
		cfg.LogMaxAgeDays = raw.LogMaxAgeDays
	}
	if cfg.UndoWindow, err = parseDuration("undo_window", raw.UndoWindow, cfg.UndoWindow); err != nil {
		return Config{}, err
	}
	if cfg.IdleDim, err = parseDuration("idle_dim", raw.IdleDim, cfg.IdleDim); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ExpandPath resolves ~ and relative paths, for flag overrides.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func parseDuration(field, s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse config %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config %s: must be positive", field)
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
