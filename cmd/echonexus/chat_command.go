package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var contextPairs []string

	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send a chat message to the reasoning core",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			body := map[string]any{"message": message}
			if cues, err := parseKeyValuePairs(contextPairs); err != nil {
				return fmt.Errorf("parse --context: %w", err)
			} else if len(cues) > 0 {
				body["memory_context"] = cues
			}

			var result chatResultView
			if err := ctx.postJSON("/api/chat", body, &result); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Memory context cue as key=value (repeatable)")
	return cmd
}

// parseKeyValuePairs turns repeated key=value flags into a map.
func parseKeyValuePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	parsed := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("%q is not key=value", pair)
		}
		parsed[key] = strings.TrimSpace(value)
	}
	return parsed, nil
}
