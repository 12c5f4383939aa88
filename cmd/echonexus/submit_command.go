package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var docType string
	var priority int
	var tags []string
	var wait bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a document for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer file.Close()

			fields := map[string]string{
				"document_type": strings.TrimSpace(docType),
				"tags":          strings.Join(tags, ","),
			}
			if priority > 0 {
				fields["priority"] = strconv.Itoa(priority)
			}

			var accepted acceptedView
			if err := ctx.postMultipart("/api/ingest", filepath.Base(args[0]), file, fields, &accepted); err != nil {
				return err
			}

			if !wait {
				if jsonOut {
					return writeJSON(cmd, accepted)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted %s\n", accepted.CorrelationID)
				fmt.Fprintf(cmd.OutOrStdout(), "Track it with `echonexus status %s`\n", accepted.CorrelationID)
				return nil
			}

			st, err := waitForDocument(ctx, accepted.CorrelationID, 2*time.Minute)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, st)
			}
			renderDocumentStatus(cmd, st)
			return nil
		},
	}

	cmd.Flags().StringVar(&docType, "type", "", "Declared document type hint (contract, invoice, research_paper)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Processing priority 1-10")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Document tag (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the pipeline to finish")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func waitForDocument(ctx *commandContext, correlationID string, timeout time.Duration) (*documentStatusView, error) {
	deadline := time.Now().Add(timeout)
	for {
		var st documentStatusView
		if err := ctx.getJSON("/api/status/"+correlationID, &st); err != nil {
			return nil, err
		}
		if terminalDocumentState(st.State) {
			return &st, nil
		}
		if time.Now().After(deadline) {
			return &st, fmt.Errorf("timed out waiting for %s (last state %s)", correlationID, st.State)
		}
		time.Sleep(250 * time.Millisecond)
	}
}
