package creative

import (
	"sort"
	"strings"
)

// Mode names one of the four transformation lenses applied during
// amplification. Iterations cycle through the modes round-robin.
type Mode string

const (
	ModeStylistic  Mode = "stylistic"
	ModeModal      Mode = "modal"
	ModeConceptual Mode = "conceptual"
	ModeSyntactic  Mode = "syntactic"
)

var modeOrder = []Mode{ModeStylistic, ModeModal, ModeConceptual, ModeSyntactic}

// ModeForIteration returns the transformation mode applied on the given
// zero-based amplifier iteration.
func ModeForIteration(i int) Mode {
	return modeOrder[i%len(modeOrder)]
}

// Amplification is the fragment produced by one amplifier iteration.
type Amplification struct {
	Mode     Mode   `json:"mode"`
	Fragment string `json:"fragment"`
}

// Input is the multi-modal stimulus a cycle starts from. At least one of the
// modality fields must carry data; Context is advisory and passes through to
// the construct unchanged.
type Input struct {
	Text     string         `json:"text,omitempty"`
	Image    string         `json:"image,omitempty"`
	Audio    string         `json:"audio,omitempty"`
	Symbolic map[string]any `json:"symbolic,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// Modalities lists the modality names present on the input, in fixed order.
func (in Input) Modalities() []string {
	var modes []string
	if strings.TrimSpace(in.Text) != "" {
		modes = append(modes, "text")
	}
	if strings.TrimSpace(in.Image) != "" {
		modes = append(modes, "image")
	}
	if strings.TrimSpace(in.Audio) != "" {
		modes = append(modes, "audio")
	}
	if len(in.Symbolic) > 0 {
		modes = append(modes, "symbolic")
	}
	return modes
}

// Empty reports whether no modality carries data.
func (in Input) Empty() bool {
	return len(in.Modalities()) == 0
}

// key is the canonical hashing form of the input. Identical inputs always
// yield identical keys, keeping lexical choices deterministic.
func (in Input) key() string {
	parts := []string{in.Text, in.Image, in.Audio}
	symbols := make([]string, 0, len(in.Symbolic))
	for name := range in.Symbolic {
		symbols = append(symbols, name)
	}
	sort.Strings(symbols)
	return strings.Join(append(parts, symbols...), "|")
}

// Construct is the value threaded through the creative cycle. Each stage of
// the sequence enriches it; nothing outside the cycle mutates it.
type Construct struct {
	CorrelationID string
	Input         Input

	Modalities      []string
	InferredContext map[string]any
	Percepts        []string
	SeedConcept     string
	Patterns        []string
	IterationCount  int
	Amplifications  []Amplification
	FinalOutput     string
}
