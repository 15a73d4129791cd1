package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stagehand/internal/logging"
)

func TestNewWritesToFileAndPrefixesComponent(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "stagehand.log")

	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "launcher")
	component.Info("daemon started", logging.String("daemon", "compositor"), logging.Int("pid", 42))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "launcher: daemon started") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "daemon=compositor") || !strings.Contains(line, "pid=42") {
		t.Fatalf("expected attributes in %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	// Must not panic and must report disabled at every level.
	logger.Error("ignored")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("expected nop logger to be disabled")
	}
}
