package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var jsonOut bool
	var image string
	var audio string
	var contextPairs []string
	var symbolicPairs []string

	cmd := &cobra.Command{
		Use:   "create [text...]",
		Short: "Run a creative cycle on a multi-modal input",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{}
			if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
				input["text"] = text
			}
			if strings.TrimSpace(image) != "" {
				input["image"] = image
			}
			if strings.TrimSpace(audio) != "" {
				input["audio"] = audio
			}
			if symbolic, err := parseKeyValuePairs(symbolicPairs); err != nil {
				return fmt.Errorf("parse --symbolic: %w", err)
			} else if len(symbolic) > 0 {
				input["symbolic"] = symbolic
			}
			if len(input) == 0 {
				return fmt.Errorf("creative input requires text, --image, --audio, or --symbolic")
			}
			if cues, err := parseKeyValuePairs(contextPairs); err != nil {
				return fmt.Errorf("parse --context: %w", err)
			} else if len(cues) > 0 {
				input["context"] = cues
			}

			var accepted acceptedView
			if err := ctx.postJSON("/api/create", input, &accepted); err != nil {
				return err
			}

			if !wait {
				if jsonOut {
					return writeJSON(cmd, accepted)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted %s\n", accepted.CorrelationID)
				fmt.Fprintf(cmd.OutOrStdout(), "Fetch the result with `echonexus create --wait` or the API\n")
				return nil
			}

			st, err := waitForCreative(ctx, accepted.CorrelationID, time.Minute)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, st)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Construct "+st.CorrelationID, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStateLine("State", st.State, colorize))
			if len(st.Modalities) > 0 {
				fmt.Fprintln(out, renderStatusLine("Modalities", statusInfo, strings.Join(st.Modalities, ", "), colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Iterations", statusInfo, fmt.Sprintf("%d", st.Iterations), colorize))
			if st.Error != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, st.Error, colorize))
			}
			if st.FinalOutput != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, st.FinalOutput)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the cycle to finish and print the construct")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&image, "image", "", "Image stimulus (base64 or URL)")
	cmd.Flags().StringVar(&audio, "audio", "", "Audio stimulus (base64 or URL)")
	cmd.Flags().StringArrayVar(&symbolicPairs, "symbolic", nil, "Symbolic stimulus as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context cue as key=value (repeatable)")
	return cmd
}

func waitForCreative(ctx *commandContext, correlationID string, timeout time.Duration) (*creativeStatusView, error) {
	deadline := time.Now().Add(timeout)
	for {
		var st creativeStatusView
		if err := ctx.getJSON("/api/creative/"+correlationID, &st); err != nil {
			return nil, err
		}
		if st.State == "completed" || st.State == "failed" {
			return &st, nil
		}
		if time.Now().After(deadline) {
			return &st, fmt.Errorf("timed out waiting for %s (last state %s)", correlationID, st.State)
		}
		time.Sleep(250 * time.Millisecond)
	}
}
