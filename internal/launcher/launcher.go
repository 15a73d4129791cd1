package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"stagehand/internal/logging"
)

// DaemonSpec describes one background process to start.
type DaemonSpec struct {
	Name    string
	Command string
	Args    []string
	LogPath string
	PIDPath string
	Env     []string // full environment; nil inherits the parent's
}

// Handle represents one launched daemon. The PID file is a serialization of
// this value, not the other way around.
type Handle struct {
	Name    string
	PID     int
	LogPath string
	PIDPath string
}

// Launcher spawns detached daemons and records their handles.
type Launcher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logging.NewComponentLogger(logger, "launcher")}
}

// Launch starts the daemon detached, with stdout and stderr appended to the
// spec's log file and the child's PID written to the PID file immediately
// after spawn. It does not block on the child beyond process creation.
func (l *Launcher) Launch(spec DaemonSpec) (*Handle, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("launch %s: command is empty", spec.Name)
	}

	logFile, err := openLog(spec.LogPath)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Name, err)
	}
	defer logFile.Close()

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if spec.Env != nil {
		cmd.Env = spec.Env
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Name, err)
	}
	pid := cmd.Process.Pid

	handle := &Handle{Name: spec.Name, PID: pid, LogPath: spec.LogPath, PIDPath: spec.PIDPath}
	if spec.PIDPath != "" {
		if err := writePIDFile(spec.PIDPath, pid); err != nil {
			l.logger.Warn("pid file not written",
				logging.String(logging.FieldDaemon, spec.Name),
				logging.String("path", spec.PIDPath),
				logging.Error(err),
			)
		}
	}

	// Detach: the daemon outlives the orchestrator, which never waits on it.
	if err := cmd.Process.Release(); err != nil {
		return handle, fmt.Errorf("release %s: %w", spec.Name, err)
	}

	l.logger.Info("daemon launched",
		logging.String(logging.FieldDaemon, spec.Name),
		logging.Int("pid", pid),
		logging.String("log", spec.LogPath),
	)
	return handle, nil
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log %q: %w", path, err)
	}
	return file, nil
}

func writePIDFile(path string, pid int) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644)
}
