package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show daemon health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var view healthView
			if err := ctx.getJSON("/api/health", &view); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			runningKind := statusError
			runningText := "stopped"
			if view.Running {
				runningKind = statusOK
				runningText = "running"
			}
			fmt.Fprintln(out, renderStatusLine("State", runningKind, runningText, colorize))
			fmt.Fprintln(out, renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d", view.Workers), colorize))
			fmt.Fprintln(out, renderStatusLine("Event log", statusInfo, view.EventDBPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, view.LockFilePath, colorize))
			if view.APIAddress != "" {
				fmt.Fprintln(out, renderStatusLine("API address", statusInfo, view.APIAddress, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
