package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	runtimeDir string
	logDir     string
}

// setupCLITestEnv writes a minimal configuration whose paths all live under a
// temp directory, so commands can run without touching the real system.
func setupCLITestEnv(t *testing.T, daemons string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	runtimeDir := filepath.Join(base, "runtime")
	fallbackDir := filepath.Join(base, "runtime-fallback")
	logDir := filepath.Join(base, "logs")

	content := fmt.Sprintf(`[paths]
runtime_dir = %q
runtime_fallback_dir = %q
log_dir = %q

[readiness]
probe = "none"

[session]
display = ":7"
locale = "en-US"

[hotplug]
enabled = false
`, runtimeDir, fallbackDir, logDir)
	content += daemons

	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		runtimeDir: runtimeDir,
		logDir:     logDir,
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
