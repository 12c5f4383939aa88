// Package creative runs the creative cycle: perceive a multi-modal input,
// seed a core concept, map associative patterns, amplify the concept through
// a fixed number of transformation iterations, and render the final
// construct.
//
// The cycle is deterministic. All lexical choices derive from a hash of the
// input, so the same input and depth always render the same construct. Each
// run records creative_cycle_initiation and exactly one terminal event under
// its own correlation id.
package creative

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/zoobzio/pipz"

	"echonexus/internal/config"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/services"
)

var flourishes = []string{
	"luminous", "fractured", "recursive", "weightless",
	"tidal", "crystalline", "feral", "liminal",
}

// Conductor orchestrates creative cycle runs over the event log.
type Conductor struct {
	events   *memory.Log
	logger   *slog.Logger
	depth    int
	sequence *pipz.Sequence[*Construct]
}

// NewConductor builds a conductor with amplifier depth taken from config.
func NewConductor(cfg *config.Config, events *memory.Log, logger *slog.Logger) *Conductor {
	c := &Conductor{
		events: events,
		logger: logging.NewComponentLogger(logger, "creative"),
		depth:  cfg.Creative.AmplifierDepth,
	}
	c.sequence = pipz.NewSequence(pipz.NewIdentity("creative_cycle", "full perceive-to-render cycle"),
		pipz.Apply(pipz.NewIdentity("perceive", "detect modalities and extract percepts"), c.perceive),
		pipz.Transform(pipz.NewIdentity("seed", "choose the core concept"), c.seed),
		pipz.Transform(pipz.NewIdentity("map_patterns", "link percepts into associative pairs"), c.mapPatterns),
		pipz.Apply(pipz.NewIdentity("amplify", "iterate the four transformation modes"), c.amplify),
		pipz.Transform(pipz.NewIdentity("render", "fold fragments into the final output"), c.render),
	)
	return c
}

// Run executes one creative cycle under a fresh correlation id.
func (c *Conductor) Run(ctx context.Context, input Input) (*Construct, error) {
	return c.RunAs(ctx, uuid.New().String(), input)
}

// RunAs executes one creative cycle under a caller-assigned correlation id,
// letting asynchronous callers hand the id back before the cycle finishes.
func (c *Conductor) RunAs(ctx context.Context, correlationID string, input Input) (*Construct, error) {
	ctx = services.WithCorrelationID(ctx, correlationID)
	logger := logging.WithContext(ctx, c.logger)

	if _, err := c.events.Append(ctx, memory.EventCreativeInitiation, correlationID, memory.Payload{
		"input":           input,
		"modalities":      input.Modalities(),
		"amplifier_depth": c.depth,
	}); err != nil {
		return nil, services.Wrap(services.ErrStage, "creative", "initiate", "record initiation event", err)
	}

	construct := &Construct{CorrelationID: correlationID, Input: input}
	out, err := c.sequence.Process(ctx, construct)
	if err != nil {
		reason := services.FaultMessage(err)
		if _, appendErr := c.events.Append(ctx, memory.EventCreativeError, correlationID, memory.Payload{
			"error": reason,
		}); appendErr != nil {
			logger.Error("creative error record failed", logging.Args(logging.Error(appendErr))...)
		}
		logger.Error("creative cycle failed", logging.Args(logging.Error(err))...)
		return nil, services.Wrap(services.ErrStage, "creative", "cycle", reason, nil)
	}

	if _, err := c.events.Append(ctx, memory.EventCreativeCompletion, correlationID, memory.Payload{
		"final_output": out.FinalOutput,
		"iterations":   out.IterationCount,
	}); err != nil {
		return nil, services.Wrap(services.ErrStage, "creative", "complete", "record completion event", err)
	}

	logger.Info("creative cycle complete", logging.Args(logging.Int("iterations", out.IterationCount))...)
	return out, nil
}

// perceive detects the modalities present on the input, extracts the salient
// tokens, and passes the caller's context through to the construct. An input
// with nothing perceivable fails the cycle.
func (c *Conductor) perceive(_ context.Context, construct *Construct) (*Construct, error) {
	in := construct.Input
	construct.Modalities = in.Modalities()
	if len(construct.Modalities) == 0 {
		return nil, fmt.Errorf("no perceivable modality on input")
	}
	construct.InferredContext = in.Context

	seen := make(map[string]struct{})
	add := func(token string) {
		if len(token) < 3 {
			return
		}
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		construct.Percepts = append(construct.Percepts, token)
	}
	for _, token := range strings.FieldsFunc(strings.ToLower(in.Text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		add(token)
	}
	// Non-text modalities perceive as their detection markers; symbolic
	// structures contribute their keys.
	if strings.TrimSpace(in.Image) != "" {
		add("image")
	}
	if strings.TrimSpace(in.Audio) != "" {
		add("audio")
	}
	symbols := make([]string, 0, len(in.Symbolic))
	for name := range in.Symbolic {
		symbols = append(symbols, strings.ToLower(name))
	}
	sort.Strings(symbols)
	for _, name := range symbols {
		add(name)
	}
	if len(construct.Percepts) == 0 {
		return nil, fmt.Errorf("nothing perceivable in input text %q", in.Text)
	}
	return construct, nil
}

// seed picks the dominant percept and adorns it with a hash-chosen flourish.
func (c *Conductor) seed(_ context.Context, construct *Construct) *Construct {
	core := construct.Percepts[0]
	for _, p := range construct.Percepts {
		if len(p) > len(core) {
			core = p
		}
	}
	construct.SeedConcept = pick(construct.Input.key(), 0) + " " + core
	return construct
}

// mapPatterns links neighboring percepts into associative pairs.
func (c *Conductor) mapPatterns(_ context.Context, construct *Construct) *Construct {
	percepts := construct.Percepts
	if len(percepts) == 1 {
		construct.Patterns = []string{percepts[0] + "<->" + percepts[0]}
		return construct
	}
	for i := 0; i+1 < len(percepts); i++ {
		construct.Patterns = append(construct.Patterns, percepts[i]+"<->"+percepts[i+1])
	}
	return construct
}

// amplify applies depth transformation iterations, cycling through the four
// modes in fixed order and folding each fragment back into the working phrase.
func (c *Conductor) amplify(ctx context.Context, construct *Construct) (*Construct, error) {
	if c.depth <= 0 {
		return nil, fmt.Errorf("amplifier depth must be positive, got %d", c.depth)
	}
	working := construct.SeedConcept
	for i := 0; i < c.depth; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mode := ModeForIteration(i)
		switch mode {
		case ModeStylistic:
			working = pick(construct.Input.key(), i+1) + " " + working
		case ModeModal:
			working = "what if " + working + " could unfold"
		case ModeConceptual:
			pattern := construct.Patterns[i%len(construct.Patterns)]
			working = working + " within " + strings.ReplaceAll(pattern, "<->", " and ")
		case ModeSyntactic:
			working = reverseWords(working)
		}
		construct.Amplifications = append(construct.Amplifications, Amplification{Mode: mode, Fragment: working})
		construct.IterationCount++
	}
	return construct, nil
}

// render folds the seed and amplified fragments into the final output.
func (c *Conductor) render(_ context.Context, construct *Construct) *Construct {
	fragments := make([]string, 0, len(construct.Amplifications))
	for _, a := range construct.Amplifications {
		fragments = append(fragments, a.Fragment)
	}
	construct.FinalOutput = construct.SeedConcept + " :: " + strings.Join(fragments, " / ")
	return construct
}

// pick deterministically selects a flourish from the lexicon for the given
// input key and iteration.
func pick(key string, iteration int) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	base := int(h.Sum32() % uint32(len(flourishes)))
	return flourishes[(base+iteration)%len(flourishes)]
}

func reverseWords(phrase string) string {
	words := strings.Fields(phrase)
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, " ")
}
