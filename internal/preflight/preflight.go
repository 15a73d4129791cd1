package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"stagehand/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckParentDirectory("Runtime directory", cfg.Paths.RuntimeDir))
	results = append(results, CheckParentDirectory("Runtime fallback", cfg.Paths.RuntimeFallbackDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDaemonBinaries(cfg.Daemons)...)
	return results
}

// CheckDaemonBinaries resolves every launch table entry's executable. A
// relative command is resolved through PATH; an absolute command must exist
// and be executable.
func CheckDaemonBinaries(daemons []config.Daemon) []Result {
	results := make([]Result, 0, len(daemons))
	for _, d := range daemons {
		result := Result{Name: d.Name, Optional: !d.Required}
		command := strings.TrimSpace(d.Command)
		switch {
		case command == "":
			result.Detail = "command not configured"
		case filepath.IsAbs(command):
			if err := unix.Access(command, unix.X_OK); err != nil {
				result.Detail = fmt.Sprintf("executable %q not usable: %v", command, err)
			} else {
				result.Passed = true
				result.Detail = command
			}
		default:
			path, err := exec.LookPath(command)
			if err != nil {
				result.Detail = fmt.Sprintf("binary %q not found", command)
			} else {
				result.Passed = true
				result.Detail = path
			}
		}
		results = append(results, result)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParentDirectory verifies that a directory either exists with write
// access or could be created under its nearest existing ancestor. Runtime
// directory candidates are created later by selection, so absence alone is
// not a failure.
func CheckParentDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}

	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		next := filepath.Dir(ancestor)
		if next == ancestor {
			break
		}
		ancestor = next
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{
			Name:     name,
			Optional: true,
			Detail:   fmt.Sprintf("%s (not creatable under %s: %v)", path, ancestor, err),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (creatable)", path)}
}

// RequiredFailures filters results down to failures that block a bootstrap.
func RequiredFailures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
