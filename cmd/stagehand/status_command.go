package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/journal"
	"stagehand/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show preflight state and recent bootstrap history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, r := range preflight.RunAll(cfg) {
				fmt.Fprintln(stdout, renderStatusLine(r.Name, preflightKind(r), r.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Bootstrap History", colorize) {
				fmt.Fprintln(stdout, line)
			}

			store, err := journal.Open(cfg)
			if err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Journal", statusWarn, err.Error(), colorize))
				return nil
			}
			defer store.Close()

			sessions, err := store.Sessions(cmd.Context(), history)
			if err != nil {
				return fmt.Errorf("read bootstrap history: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(stdout, "No recorded sessions")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					s.Status,
					formatTimestamp(s.StartedAt),
					formatTimestamp(s.FinishedAt),
					s.RuntimeDir,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Session", "Status", "Started", "Finished", "Runtime dir"},
				rows,
			))

			// The newest session gets its launch breakdown inline.
			launches, err := store.Launches(cmd.Context(), sessions[0].ID)
			if err != nil {
				return fmt.Errorf("read launch history: %w", err)
			}
			if len(launches) == 0 {
				return nil
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Last Session Launches", colorize) {
				fmt.Fprintln(stdout, line)
			}
			launchRows := make([][]string, 0, len(launches))
			for _, l := range launches {
				pid := ""
				if l.PID > 0 {
					pid = strconv.Itoa(l.PID)
				}
				launchRows = append(launchRows, []string{
					l.Daemon, l.Stage, pid, yesNo(l.Required), l.Outcome, l.Detail,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Daemon", "Stage", "PID", "Required", "Outcome", "Detail"},
				launchRows, 3,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 5, "How many recent sessions to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
