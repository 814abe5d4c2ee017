package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tally.log")
	logger, closer := New(Options{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	logger.Printf("hello %d", 42)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "tally hello 42") {
		t.Fatalf("log file missing message: %q", data)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Printf("dropped")
}
