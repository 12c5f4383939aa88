package testsupport

import (
	"path/filepath"
	"testing"

	"echonexus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Simulated module latency is zeroed so pipeline tests run fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfg.Paths.QuarantineDir = filepath.Join(base, "quarantine")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.ModuleLatencyMS = 0
	cfg.Workflow.PriorityLatencyMS = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkers overrides the worker pool size on the test config.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.Workers = n
	}
}

// WithAmplifierDepth overrides the creative amplifier depth on the test config.
func WithAmplifierDepth(depth int) ConfigOption {
	return func(c *config.Config) {
		c.Creative.AmplifierDepth = depth
	}
}

// WithDefaultDestination routes unknown-category completions to a processed
// subdirectory instead of quarantine.
func WithDefaultDestination(dir string) ConfigOption {
	return func(c *config.Config) {
		c.Destinations.DefaultDir = dir
	}
}
