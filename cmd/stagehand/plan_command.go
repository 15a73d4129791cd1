package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stagehand/internal/config"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show what a bootstrap would do without launching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Runtime Directory", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Primary", statusInfo, cfg.Paths.RuntimeDir, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Fallback", statusInfo, cfg.Paths.RuntimeFallbackDir, colorize))
			fmt.Fprintln(stdout)

			if len(cfg.DeviceNodes) > 0 {
				for _, line := range renderSectionHeader("Device Nodes", colorize) {
					fmt.Fprintln(stdout, line)
				}
				rows := make([][]string, 0, len(cfg.DeviceNodes))
				for _, n := range cfg.DeviceNodes {
					rows = append(rows, []string{
						n.Path, n.Type,
						fmt.Sprintf("%d:%d", n.Major, n.Minor),
						fmt.Sprintf("%#o", n.Mode),
					})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Path", "Type", "Device", "Mode"}, rows, 3))
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Launch Plan", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := make([][]string, 0, len(cfg.Daemons))
			for _, stage := range config.Stages() {
				for _, d := range cfg.DaemonsForStage(stage) {
					command := d.Command
					if len(d.Args) > 0 {
						command += " " + strings.Join(d.Args, " ")
					}
					rows = append(rows, []string{
						stageTitle(stage), d.Name, command, yesNo(d.Required), cfg.LogPathFor(d),
					})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Launch table is empty")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"Stage", "Daemon", "Command", "Required", "Log"}, rows))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Readiness Gate", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Probe", statusInfo, readinessSummary(cfg.Readiness), colorize))
			budget := time.Duration(cfg.Readiness.IntervalMS) * time.Millisecond * time.Duration(cfg.Readiness.MaxAttempts)
			fmt.Fprintln(stdout, renderStatusLine("Budget", statusInfo,
				fmt.Sprintf("%d attempts, %dms apart (at most %s)", cfg.Readiness.MaxAttempts, cfg.Readiness.IntervalMS, budget), colorize))
			return nil
		},
	}
}

// stageTitle turns a stage key like "window-manager" into "Window Manager".
func stageTitle(stage string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(stage, "-", " "))
}

func readinessSummary(r config.Readiness) string {
	switch r.Probe {
	case "socket":
		return "socket " + r.SocketPath
	case "command":
		command := r.Command
		if len(r.CommandArgs) > 0 {
			command += " " + strings.Join(r.CommandArgs, " ")
		}
		return "command " + command
	default:
		return "disabled"
	}
}
