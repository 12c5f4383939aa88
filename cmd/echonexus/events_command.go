package main

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var correlationID string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events from the log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if strings.TrimSpace(correlationID) != "" {
				query.Set("correlation_id", strings.TrimSpace(correlationID))
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/events"
			if encoded := query.Encode(); encoded != "" {
				path += "?" + encoded
			}

			var view eventsView
			if err := ctx.getJSON(path, &view); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			if len(view.Events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
				return nil
			}

			rows := make([][]string, 0, len(view.Events))
			for _, event := range view.Events {
				rows = append(rows, []string{
					event.Timestamp.Local().Format("15:04:05"),
					event.EventType,
					shortID(event.CorrelationID),
					summarizePayload(event.Payload),
				})
			}
			table := renderTable(
				[]column{{title: "TIME"}, {title: "EVENT"}, {title: "CORRELATION"}, {title: "DETAIL"}},
				rows,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVar(&correlationID, "id", "", "Filter by correlation id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum events to return")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// summarizePayload flattens a payload into "key=value" pairs, keeping the
// table row readable by truncating long values.
func summarizePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := fmt.Sprintf("%v", payload[key])
		if len(value) > 48 {
			value = value[:45] + "..."
		}
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, " ")
}
