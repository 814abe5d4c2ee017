// Package prefs is the per-device preference store: scalar values addressed by
// string keys, persisted in a single TOML file and readable as live streams.
// Preferences are stored in ~/.config/tally/prefs.toml by default.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sadopc/tally/internal/logging"
	"github.com/sadopc/tally/internal/watch"
)

// Known keys.
const (
	KeyVibrateOnTap      = "vibrate_on_tap"
	KeyKeepScreenOn      = "keep_screen_on"
	KeyLastUsedCounterID = "last_used_counter_id"
	KeyCounterOrder      = "counter_order"
)

const defaultPrefsPath = "~/.config/tally/prefs.toml"

// Value is one read of a key. OK is false when the key is unset or holds a
// value of another type.
type Value[T comparable] struct {
	V  T
	OK bool
}

// Store holds the preference file in memory and rewrites it on every change.
type Store struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	values  map[string]any
	changes *watch.Notifier
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Open loads the preference file at path (the default path when empty). A
// missing file is an empty store; an unreadable or invalid one is logged and
// also treated as empty.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve prefs path: %w", err)
	}

	s := &Store{
		path:    resolved,
		logger:  logger,
		values:  make(map[string]any),
		changes: watch.NewNotifier(),
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Printf("read prefs %s: %v", resolved, err)
		}
		return s, nil
	}
	if err := toml.Unmarshal(data, &s.values); err != nil {
		logger.Printf("parse prefs %s: %v", resolved, err)
		s.values = make(map[string]any)
	}
	return s, nil
}

// Path returns the resolved file path.
func (s *Store) Path() string { return s.path }

func (s *Store) Bool(key string) (bool, bool) {
	v := get[bool](s, key)
	return v.V, v.OK
}

func (s *Store) Int(key string) (int64, bool) {
	v := get[int64](s, key)
	return v.V, v.OK
}

func (s *Store) String(key string) (string, bool) {
	v := get[string](s, key)
	return v.V, v.OK
}

func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.set(ctx, key, v)
}

func (s *Store) SetInt(ctx context.Context, key string, v int64) error {
	return s.set(ctx, key, v)
}

func (s *Store) SetString(ctx context.Context, key string, v string) error {
	return s.set(ctx, key, v)
}

// Remove deletes key. Removing an unset key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.update(ctx, func(values map[string]any) { delete(values, key) })
}

func (s *Store) WatchBool(ctx context.Context, key string) *watch.Subscription[Value[bool]] {
	return watchKey[bool](ctx, s, key)
}

func (s *Store) WatchInt(ctx context.Context, key string) *watch.Subscription[Value[int64]] {
	return watchKey[int64](ctx, s, key)
}

func (s *Store) WatchString(ctx context.Context, key string) *watch.Subscription[Value[string]] {
	return watchKey[string](ctx, s, key)
}

func get[T comparable](s *Store, key string) Value[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key].(T)
	return Value[T]{V: v, OK: ok}
}

func watchKey[T comparable](ctx context.Context, s *Store, key string) *watch.Subscription[Value[T]] {
	return watch.Watch(ctx, s.changes, func(context.Context) (Value[T], error) {
		return get[T](s, key), nil
	}, func(a, b Value[T]) bool { return a == b })
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	return s.update(ctx, func(values map[string]any) { values[key] = v })
}

// update applies fn to a copy of the values, persists the copy, and only then
// makes it visible. A failed write leaves the in-memory values unchanged.
func (s *Store) update(ctx context.Context, fn func(map[string]any)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	next := make(map[string]any, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	fn(next)
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.values = next
	s.mu.Unlock()

	s.changes.Notify()
	return nil
}

func (s *Store) write(values map[string]any) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
