package readiness

import (
	"context"
	"os"
	"os/exec"
	"time"

	"stagehand/internal/config"
)

// SocketProbe reports readiness once path exists. Used for display servers
// that create their listening socket when they are able to accept clients.
func SocketProbe(path string) Check {
	return func() bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

// CommandProbe reports readiness when the query command exits zero. The
// command must be side-effect free; it is typically an X property query.
// Each invocation is bounded so a hung query cannot stall the gate past its
// budget.
func CommandProbe(ctx context.Context, name string, args ...string) Check {
	return func() bool {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cmd := exec.CommandContext(runCtx, name, args...)
		cmd.Stdout = nil
		cmd.Stderr = nil
		return cmd.Run() == nil
	}
}

// FromConfig builds the configured probe. A "none" probe returns nil,
// signalling the sequencer to skip the gate.
func FromConfig(ctx context.Context, cfg config.Readiness) Check {
	switch cfg.Probe {
	case "socket":
		return SocketProbe(cfg.SocketPath)
	case "command":
		return CommandProbe(ctx, cfg.Command, cfg.CommandArgs...)
	default:
		return nil
	}
}
