package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stagehand/internal/bootstrap"
	"stagehand/internal/devmon"
	"stagehand/internal/devnode"
	"stagehand/internal/journal"
	"stagehand/internal/logging"
	"stagehand/internal/preflight"
)

func newUpCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the graphical session",
		Long: "Provision device nodes, select the runtime directory, and launch the\n" +
			"configured daemons in order. With --watch the process stays alive and\n" +
			"re-provisions device nodes when matching devices hotplug.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			if !skipPreflight {
				results := preflight.RunAll(cfg)
				printPreflight(stdout, results, colorize)
				if failures := preflight.RequiredFailures(results); len(failures) > 0 {
					names := make([]string, 0, len(failures))
					for _, f := range failures {
						names = append(names, f.Name)
					}
					return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
				}
			}

			store, err := journal.Open(cfg)
			if err != nil {
				// History is diagnostic; a broken journal must not block the
				// session.
				logger.Warn("bootstrap journal unavailable", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			report, runErr := bootstrap.New(cfg, logger, store).Run(runCtx)
			printReport(stdout, report, colorize)
			if runErr != nil {
				return runErr
			}

			if watch {
				if err := watchHotplug(runCtx, ctx, stdout); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Stay running and re-provision device nodes on hotplug events")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Launch without running preflight checks")
	return cmd
}

func watchHotplug(ctx context.Context, cmdCtx *commandContext, stdout io.Writer) error {
	cfg := cmdCtx.configValue()
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return err
	}

	provisioner := devnode.New(logger)
	monitor := devmon.New(cfg, logger, func(ctx context.Context, devname string) {
		provisioner.Provision(cfg.DeviceNodes)
	})
	if monitor == nil {
		fmt.Fprintln(stdout, "Hotplug monitoring disabled; nothing to watch")
		return nil
	}

	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start hotplug monitor: %w", err)
	}
	defer monitor.Stop()

	fmt.Fprintln(stdout, "Watching for device hotplug events (Ctrl-C to exit)")
	<-ctx.Done()
	return nil
}

func printPreflight(stdout io.Writer, results []preflight.Result, colorize bool) {
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, r := range results {
		fmt.Fprintln(stdout, renderStatusLine(r.Name, preflightKind(r), r.Detail, colorize))
	}
	fmt.Fprintln(stdout)
}

func preflightKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func printReport(stdout io.Writer, report *bootstrap.Report, colorize bool) {
	if report == nil {
		return
	}

	for _, line := range renderSectionHeader("Bootstrap", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if report.SessionID != "" {
		fmt.Fprintln(stdout, renderStatusLine("Session", statusInfo, report.SessionID, colorize))
	}
	if report.RuntimeDir != "" {
		fmt.Fprintln(stdout, renderStatusLine("Runtime directory", statusInfo, report.RuntimeDir, colorize))
	}
	for _, step := range report.Steps {
		kind := statusOK
		if !step.OK {
			kind = statusWarn
		}
		if report.Failed() && step.State == report.FailedState {
			kind = statusError
		}
		fmt.Fprintln(stdout, renderStatusLine(string(step.State), kind, step.Detail, colorize))
	}

	if len(report.Handles) > 0 {
		fmt.Fprintln(stdout)
		rows := make([][]string, 0, len(report.Handles))
		for _, h := range report.Handles {
			rows = append(rows, []string{h.Name, strconv.Itoa(h.PID), h.LogPath, h.PIDPath})
		}
		fmt.Fprintln(stdout, renderTable([]string{"Daemon", "PID", "Log", "PID file"}, rows, 2))
	}
}
