package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RuntimeDir         string `toml:"runtime_dir"`
	RuntimeFallbackDir string `toml:"runtime_fallback_dir"`
	LogDir             string `toml:"log_dir"`
}

// DeviceNode describes one special file to provision before the session
// starts. Mode is a standard Unix permission bit pattern.
type DeviceNode struct {
	Path  string `toml:"path"`
	Type  string `toml:"type"` // "char" or "block"
	Major uint32 `toml:"major"`
	Minor uint32 `toml:"minor"`
	Mode  uint32 `toml:"mode"`
}

// Daemon is one entry of the launch table. LogFile and PIDFile are resolved
// against the log directory and runtime directory respectively when relative.
// Required daemons abort the bootstrap when they fail to spawn; all others
// are best-effort.
type Daemon struct {
	Name     string   `toml:"name"`
	Command  string   `toml:"command"`
	Args     []string `toml:"args"`
	LogFile  string   `toml:"log_file"`
	PIDFile  string   `toml:"pid_file"`
	Stage    string   `toml:"stage"`
	Required bool     `toml:"required"`
}

// Daemon launch stages, in bootstrap order. The readiness gate sits between
// the session stage and the window manager stage.
const (
	StageCore          = "core"
	StageDisplay       = "display"
	StageSession       = "session"
	StageWindowManager = "window-manager"
	StageShell         = "shell"
	StagePanel         = "panel"
)

// Stages lists the launch stages in bootstrap order.
func Stages() []string {
	return []string{StageCore, StageDisplay, StageSession, StageWindowManager, StageShell, StagePanel}
}

// Readiness configures the gate between launching the display server and the
// daemons that need it to be usable.
type Readiness struct {
	Probe       string   `toml:"probe"` // "socket", "command", or "none"
	SocketPath  string   `toml:"socket_path"`
	Command     string   `toml:"command"`
	CommandArgs []string `toml:"command_args"`
	IntervalMS  int      `toml:"interval_ms"`
	MaxAttempts int      `toml:"max_attempts"`
}

// Session carries the environment handed to every launched daemon. Modeled
// explicitly instead of mutating the orchestrator's own environment so tests
// can vary configurations without process isolation.
type Session struct {
	Display    string            `toml:"display"`
	Locale     string            `toml:"locale"`
	Theme      string            `toml:"theme"`
	ModulePath string            `toml:"module_path"`
	EnvFile    string            `toml:"env_file"`
	Env        map[string]string `toml:"env"`
}

// Hotplug configures the optional udev netlink monitor that re-provisions
// device nodes when matching devices appear after bootstrap.
type Hotplug struct {
	Enabled    bool     `toml:"enabled"`
	Subsystems []string `toml:"subsystems"`
}

// Logging contains configuration for orchestrator log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stagehand.
//
// Configuration sections by subsystem:
//   - Paths: runtime directory candidates and the log directory
//   - DeviceNodes: special files provisioned before any daemon starts
//   - Daemons: the ordered launch table with per-daemon fatal/optional policy
//   - Readiness: display readiness probe, poll interval, and attempt budget
//   - Session: environment passed to launched daemons
//   - Hotplug: udev monitoring for late-appearing devices
//   - Logging: orchestrator log format and level
type Config struct {
	Paths       Paths        `toml:"paths"`
	DeviceNodes []DeviceNode `toml:"device_node"`
	Daemons     []Daemon     `toml:"daemon"`
	Readiness   Readiness    `toml:"readiness"`
	Session     Session      `toml:"session"`
	Hotplug     Hotplug      `toml:"hotplug"`
	Logging     Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stagehand/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a configuration file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stagehand.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory. Runtime directories are not
// created here: their selection and probing belongs to the runtimedir
// package, which owns the primary/fallback policy.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// DaemonsForStage returns the launch table entries for one stage, preserving
// table order.
func (c *Config) DaemonsForStage(stage string) []Daemon {
	var out []Daemon
	for _, d := range c.Daemons {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}

// LogPathFor resolves a daemon's log file against the log directory.
func (c *Config) LogPathFor(d Daemon) string {
	if filepath.IsAbs(d.LogFile) {
		return d.LogFile
	}
	name := d.LogFile
	if strings.TrimSpace(name) == "" {
		name = d.Name + ".log"
	}
	return filepath.Join(c.Paths.LogDir, name)
}

// PIDPathFor resolves a daemon's PID file against the chosen runtime
// directory.
func (c *Config) PIDPathFor(runtimeDir string, d Daemon) string {
	if filepath.IsAbs(d.PIDFile) {
		return d.PIDFile
	}
	name := d.PIDFile
	if strings.TrimSpace(name) == "" {
		name = d.Name + ".pid"
	}
	return filepath.Join(runtimeDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
