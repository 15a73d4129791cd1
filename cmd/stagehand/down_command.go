package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/teardown"
)

func newDownCommand(ctx *commandContext) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Terminate the session daemons and clean up runtime state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			opts := teardown.Options{GracePeriod: grace}
			torndown := 0
			var firstErr error

			// A session can live in either runtime directory candidate
			// depending on how selection went at bootstrap.
			for _, dir := range runtimeDirCandidates(cfg.Paths.RuntimeDir, cfg.Paths.RuntimeFallbackDir) {
				if _, err := os.Stat(dir); err != nil {
					continue
				}
				results, err := teardown.Run(dir, opts, logger)
				if err != nil && firstErr == nil {
					firstErr = err
				}
				for _, r := range results {
					torndown++
					fmt.Fprintln(stdout, renderStatusLine(r.Name, teardownKind(r), teardownDetail(r), colorize))
				}
			}

			if torndown == 0 {
				fmt.Fprintln(stdout, "No running session found")
			}
			return firstErr
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "How long to wait after SIGTERM before sending SIGKILL")
	return cmd
}

func runtimeDirCandidates(primary, fallback string) []string {
	if fallback == "" || fallback == primary {
		return []string{primary}
	}
	return []string{primary, fallback}
}

func teardownKind(r teardown.Result) statusKind {
	switch {
	case r.Err != nil:
		return statusError
	case r.Forced:
		return statusWarn
	default:
		return statusOK
	}
}

func teardownDetail(r teardown.Result) string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Forced:
		return "killed after grace period (pid " + strconv.Itoa(r.PID) + ")"
	case r.Terminated:
		return "terminated (pid " + strconv.Itoa(r.PID) + ")"
	default:
		return "not running"
	}
}
