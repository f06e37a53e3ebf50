package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestGlobalDefaultsToNoop(t *testing.T) {
	SetGlobal(nil)

	logger := Global()
	if logger == nil {
		t.Fatal("Global() returned nil")
	}
	logger.Info("dropped")
}

func TestSetGlobal(t *testing.T) {
	defer SetGlobal(nil)

	var buf bytes.Buffer
	logger, err := New(&Config{Level: LevelDebug, Console: true, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetGlobal(logger)

	if got := Global(); got != logger {
		t.Error("Global() should return the logger set by SetGlobal()")
	}
	Debug("resolving targets", "manifest", "/ws/Cargo.toml")
	if out := buf.String(); !strings.Contains(out, "resolving targets") || !strings.Contains(out, "manifest=/ws/Cargo.toml") {
		t.Errorf("global Debug output = %q", out)
	}
}

func TestCloseGlobal(t *testing.T) {
	logger, err := New(&Config{Level: LevelInfo, LogDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetGlobal(logger)

	if err := CloseGlobal(); err != nil {
		t.Fatalf("CloseGlobal() error = %v", err)
	}
	if Global() == logger {
		t.Error("CloseGlobal() should uninstall the logger")
	}
	if err := CloseGlobal(); err != nil {
		t.Errorf("CloseGlobal() with no logger should not error: %v", err)
	}
}
