package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <correlation-id>",
		Short: "Show pipeline status for a correlation id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st documentStatusView
			if err := ctx.getJSON("/api/status/"+strings.TrimSpace(args[0]), &st); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, st)
			}
			renderDocumentStatus(cmd, &st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func renderDocumentStatus(cmd *cobra.Command, st *documentStatusView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Document "+st.CorrelationID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStateLine("State", st.State, colorize))
	if st.Category != "" {
		fmt.Fprintln(out, renderStatusLine("Category", statusInfo, st.Category, colorize))
	}
	if len(st.Workflow) > 0 {
		progress := fmt.Sprintf("%d/%d modules", st.CompletedModules, len(st.Workflow))
		fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, progress, colorize))
	}
	if st.CurrentModule != "" && st.State == "in_progress" {
		fmt.Fprintln(out, renderStatusLine("Current module", statusInfo, st.CurrentModule, colorize))
	}
	if st.FinalPath != "" {
		fmt.Fprintln(out, renderStatusLine("Final path", statusOK, st.FinalPath, colorize))
	}
	if st.QuarantinedPath != "" {
		fmt.Fprintln(out, renderStatusLine("Quarantined", statusError, st.QuarantinedPath, colorize))
	}
	if st.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, st.Error, colorize))
	}
	if !st.LastUpdated.IsZero() {
		fmt.Fprintln(out, renderStatusLine("Last updated", statusInfo, st.LastUpdated.Local().Format("2006-01-02 15:04:05"), colorize))
	}
}
