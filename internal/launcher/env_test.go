package launcher_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stagehand/internal/config"
	"stagehand/internal/launcher"
)

func envLookup(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return strings.TrimPrefix(entry, prefix), true
		}
	}
	return "", false
}

func TestBuildEnvironmentSessionSettingsWin(t *testing.T) {
	t.Setenv("DISPLAY", ":9")
	t.Setenv("KEEP_ME", "inherited")

	dir := t.TempDir()
	envFile := filepath.Join(dir, "session.env")
	if err := os.WriteFile(envFile, []byte("DISPLAY=:7\nFROM_FILE=yes\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := launcher.BuildEnvironment(config.Session{
		Display: ":0",
		Locale:  "de-DE",
		Theme:   "Adwaita",
		EnvFile: envFile,
		Env:     map[string]string{"EXTRA": "1"},
	}, "/run/stagehand")
	if err != nil {
		t.Fatalf("BuildEnvironment returned error: %v", err)
	}

	for key, want := range map[string]string{
		"DISPLAY":         ":0",
		"LANG":            "de_DE.UTF-8",
		"GTK_THEME":       "Adwaita",
		"XDG_RUNTIME_DIR": "/run/stagehand",
		"FROM_FILE":       "yes",
		"EXTRA":           "1",
		"KEEP_ME":         "inherited",
	} {
		got, ok := envLookup(env, key)
		if !ok {
			t.Fatalf("missing %s in environment", key)
		}
		if got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
}

func TestBuildEnvironmentModulePathPrepends(t *testing.T) {
	t.Setenv("XDG_DATA_DIRS", "/usr/share")
	env, err := launcher.BuildEnvironment(config.Session{ModulePath: "/opt/session/share"}, "")
	if err != nil {
		t.Fatalf("BuildEnvironment returned error: %v", err)
	}
	got, _ := envLookup(env, "XDG_DATA_DIRS")
	if got != "/opt/session/share:/usr/share" {
		t.Fatalf("unexpected XDG_DATA_DIRS: %q", got)
	}
}

func TestBuildEnvironmentMissingEnvFileFails(t *testing.T) {
	_, err := launcher.BuildEnvironment(config.Session{EnvFile: "/nonexistent/session.env"}, "")
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}
