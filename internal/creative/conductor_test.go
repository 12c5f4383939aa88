package creative_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"echonexus/internal/creative"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/services"
	"echonexus/internal/testsupport"
)

func TestModeForIterationCyclesInOrder(t *testing.T) {
	want := []creative.Mode{
		creative.ModeStylistic,
		creative.ModeModal,
		creative.ModeConceptual,
		creative.ModeSyntactic,
		creative.ModeStylistic,
		creative.ModeModal,
	}
	for i, mode := range want {
		if got := creative.ModeForIteration(i); got != mode {
			t.Fatalf("iteration %d mode %s, want %s", i, got, mode)
		}
	}
}

func TestRunCompletesWithConfiguredDepth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAmplifierDepth(4))
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	out, err := conductor.Run(context.Background(), creative.Input{Text: "a quiet harbor at dawn"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.IterationCount != 4 {
		t.Fatalf("iterations %d, want 4", out.IterationCount)
	}
	if len(out.Amplifications) != 4 {
		t.Fatalf("amplifications %d, want 4", len(out.Amplifications))
	}
	for i, amp := range out.Amplifications {
		if amp.Mode != creative.ModeForIteration(i) {
			t.Fatalf("iteration %d mode %s, want %s", i, amp.Mode, creative.ModeForIteration(i))
		}
	}
	if out.FinalOutput == "" || !strings.Contains(out.FinalOutput, " :: ") {
		t.Fatalf("unexpected final output %q", out.FinalOutput)
	}

	events, err := log.Query(context.Background(), out.CorrelationID, 10)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected initiation and completion events, got %d", len(events))
	}
	if events[0].Type != memory.EventCreativeCompletion {
		t.Fatalf("newest event %s, want %s", events[0].Type, memory.EventCreativeCompletion)
	}
	if events[0].Payload["final_output"] != out.FinalOutput {
		t.Fatalf("completion payload missing final_output: %v", events[0].Payload)
	}
	if events[1].Type != memory.EventCreativeInitiation {
		t.Fatalf("oldest event %s, want %s", events[1].Type, memory.EventCreativeInitiation)
	}
}

func TestRunDetectsModalities(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	out, err := conductor.Run(context.Background(), creative.Input{
		Image:    "base64:deadbeef",
		Symbolic: map[string]any{"resonance": 7},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.Join(out.Modalities, ","); got != "image,symbolic" {
		t.Fatalf("modalities %q, want image,symbolic", got)
	}
	percepts := strings.Join(out.Percepts, ",")
	if !strings.Contains(percepts, "image") || !strings.Contains(percepts, "resonance") {
		t.Fatalf("percepts %q should mark detected modalities", percepts)
	}

	events, err := log.Query(context.Background(), out.CorrelationID, 10)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	initiation := events[len(events)-1]
	if initiation.Type != memory.EventCreativeInitiation {
		t.Fatalf("oldest event %s, want initiation", initiation.Type)
	}
	modalities, ok := initiation.Payload["modalities"].([]any)
	if !ok || len(modalities) != 2 {
		t.Fatalf("initiation payload modalities %v, want two entries", initiation.Payload["modalities"])
	}
}

func TestRunThreadsContextThroughCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	out, err := conductor.Run(context.Background(), creative.Input{
		Text:    "a luminous tide",
		Context: map[string]any{"mood": "calm"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.InferredContext["mood"] != "calm" {
		t.Fatalf("inferred context %v, want mood=calm carried through", out.InferredContext)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	input := creative.Input{Text: "recursive tidal gardens"}
	first, err := conductor.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := conductor.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.FinalOutput != second.FinalOutput {
		t.Fatalf("same input rendered differently:\n%q\n%q", first.FinalOutput, second.FinalOutput)
	}
	if first.CorrelationID == second.CorrelationID {
		t.Fatal("each run must get its own correlation id")
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	_, err := conductor.Run(context.Background(), creative.Input{Text: "   "})
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("expected stage fault marker, got %v", err)
	}

	events, queryErr := log.Query(context.Background(), "", 10)
	if queryErr != nil {
		t.Fatalf("query events: %v", queryErr)
	}
	if len(events) != 2 || events[0].Type != memory.EventCreativeError {
		t.Fatalf("expected initiation then error events, newest %v", events[0].Type)
	}
}

func TestRunFailsOnNonPositiveDepth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAmplifierDepth(-1))
	log := testsupport.MustOpenLog(t, cfg)
	conductor := creative.NewConductor(cfg, log, logging.NewNop())

	_, err := conductor.Run(context.Background(), creative.Input{Text: "shallow depths"})
	if err == nil {
		t.Fatal("expected error for non-positive depth")
	}
	if !strings.Contains(err.Error(), "amplifier depth") {
		t.Fatalf("unexpected error %v", err)
	}
}
