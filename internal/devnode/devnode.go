package devnode

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"stagehand/internal/config"
	"stagehand/internal/logging"
)

// Outcome classifies what Provision did for one spec.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result reports the provisioning outcome for a single device node.
type Result struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Provisioner creates device nodes. The syscall seams exist so tests can run
// without CAP_MKNOD.
type Provisioner struct {
	logger *slog.Logger

	mknod func(path string, mode uint32, dev int) error
	chmod func(path string, mode os.FileMode) error
	stat  func(path string) (os.FileInfo, error)
}

// New returns a Provisioner that performs real mknod calls.
func New(logger *slog.Logger) *Provisioner {
	return &Provisioner{
		logger: logging.NewComponentLogger(logger, "devnode"),
		mknod:  unix.Mknod,
		chmod:  os.Chmod,
		stat:   os.Stat,
	}
}

// Provision creates each configured device node that does not already exist.
// It never stops early: every spec gets a Result, and failures are logged at
// warn level.
func (p *Provisioner) Provision(specs []config.DeviceNode) []Result {
	results := make([]Result, 0, len(specs))
	for _, spec := range specs {
		result := p.provisionOne(spec)
		switch result.Outcome {
		case OutcomeCreated:
			p.logger.Info("device node created",
				logging.String("path", spec.Path),
				logging.String("type", spec.Type),
			)
		case OutcomeSkipped:
			p.logger.Debug("device node already present", logging.String("path", spec.Path))
		case OutcomeFailed:
			p.logger.Warn("device node provisioning failed",
				logging.String("path", spec.Path),
				logging.Error(result.Err),
			)
		}
		results = append(results, result)
	}
	return results
}

func (p *Provisioner) provisionOne(spec config.DeviceNode) Result {
	if _, err := p.stat(spec.Path); err == nil {
		return Result{Path: spec.Path, Outcome: OutcomeSkipped}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{Path: spec.Path, Outcome: OutcomeFailed, Err: fmt.Errorf("stat %q: %w", spec.Path, err)}
	}

	if dir := filepath.Dir(spec.Path); dir != "" && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{Path: spec.Path, Outcome: OutcomeFailed, Err: fmt.Errorf("create parent %q: %w", dir, err)}
		}
	}

	mode := spec.Mode
	switch spec.Type {
	case "block":
		mode |= unix.S_IFBLK
	default:
		mode |= unix.S_IFCHR
	}
	dev := int(unix.Mkdev(spec.Major, spec.Minor))
	if err := p.mknod(spec.Path, mode, dev); err != nil {
		return Result{Path: spec.Path, Outcome: OutcomeFailed, Err: fmt.Errorf("mknod %q: %w", spec.Path, err)}
	}

	// mknod honours the umask; set the requested bits explicitly.
	if err := p.chmod(spec.Path, os.FileMode(spec.Mode)); err != nil {
		return Result{Path: spec.Path, Outcome: OutcomeFailed, Err: fmt.Errorf("chmod %q: %w", spec.Path, err)}
	}
	return Result{Path: spec.Path, Outcome: OutcomeCreated}
}

// Failed filters results down to the failures.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Outcome == OutcomeFailed {
			out = append(out, r)
		}
	}
	return out
}
