package teardown

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stagehand/internal/logging"
)

// Result reports the outcome for one PID file.
type Result struct {
	PIDFile    string
	Name       string
	PID        int
	Terminated bool
	Forced     bool
	Err        error
}

// Options controls teardown behavior.
type Options struct {
	// GracePeriod bounds the wait between SIGTERM and SIGKILL.
	GracePeriod time.Duration
}

// Run terminates every daemon recorded by a PID file in runtimeDir and
// removes the files it consumed, including the session lock and record.
// Failures are reported per daemon; the remaining PID files are still
// processed.
func Run(runtimeDir string, opts Options, logger *slog.Logger) ([]Result, error) {
	log := logging.NewComponentLogger(logger, "teardown")
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 5 * time.Second
	}

	pidFiles, err := filepath.Glob(filepath.Join(runtimeDir, "*.pid"))
	if err != nil {
		return nil, fmt.Errorf("scan runtime directory %q: %w", runtimeDir, err)
	}

	results := make([]Result, 0, len(pidFiles))
	for _, pidFile := range pidFiles {
		result := terminateOne(pidFile, opts.GracePeriod)
		switch {
		case result.Err != nil:
			log.Warn("daemon not terminated",
				logging.String(logging.FieldDaemon, result.Name),
				logging.Error(result.Err),
			)
		case result.Terminated:
			log.Info("daemon terminated",
				logging.String(logging.FieldDaemon, result.Name),
				logging.Int("pid", result.PID),
				logging.Bool("forced", result.Forced),
			)
		default:
			log.Debug("daemon already gone",
				logging.String(logging.FieldDaemon, result.Name),
				logging.Int("pid", result.PID),
			)
		}
		results = append(results, result)
	}

	// Session artifacts last, so an interrupted teardown can be re-run.
	_ = os.Remove(filepath.Join(runtimeDir, "session"))
	_ = os.Remove(filepath.Join(runtimeDir, "stagehand.lock"))

	return results, nil
}

func terminateOne(pidFile string, grace time.Duration) Result {
	name := strings.TrimSuffix(filepath.Base(pidFile), ".pid")
	result := Result{PIDFile: pidFile, Name: name}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		result.Err = fmt.Errorf("read pid file: %w", err)
		return result
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		result.Err = fmt.Errorf("pid file %q holds no valid pid", pidFile)
		_ = os.Remove(pidFile)
		return result
	}
	result.PID = pid

	if pid == os.Getpid() {
		result.Err = fmt.Errorf("refusing to kill current process (pid %d)", pid)
		return result
	}

	if !processAlive(pid) {
		_ = os.Remove(pidFile)
		return result
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		result.Err = fmt.Errorf("signal pid %d: %w", pid, err)
		return result
	}
	result.Terminated = true

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(pidFile)
			return result
		}
		time.Sleep(50 * time.Millisecond)
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		result.Err = fmt.Errorf("kill pid %d: %w", pid, err)
		return result
	}
	result.Forced = true
	_ = os.Remove(pidFile)
	return result
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}
