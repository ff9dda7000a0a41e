package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diewo77/go-materiel/internal/config"
)

func stdin(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRun_CreatesAdminOnce(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "admin.db")}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	if err := run(cfg, logger, stdin(t, "root\nsecret\nsecret\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"root" créé`) {
		t.Fatalf("unexpected output %q", out.String())
	}

	err := run(cfg, logger, stdin(t, "other\nsecret\nsecret\n"), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "existe déjà") {
		t.Fatalf("expected refusal, got %v", err)
	}
}

func TestRun_PasswordMismatch(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "admin.db")}}
	err := run(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), stdin(t, "root\nsecret\nautre\n"), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "correspondent pas") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}
