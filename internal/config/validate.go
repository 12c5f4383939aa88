package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDestinations(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateCreative(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ProcessedDir) == "" {
		return errors.New("paths.processed_dir must be set")
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		return errors.New("paths.quarantine_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDestinations() error {
	for name, dir := range map[string]string{
		"destinations.contract":       c.Destinations.Contract,
		"destinations.invoice":        c.Destinations.Invoice,
		"destinations.research_paper": c.Destinations.ResearchPaper,
	} {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers < 1 {
		return errors.New("workflow.workers must be at least 1")
	}
	if c.Workflow.QueueCapacity < 1 {
		return errors.New("workflow.queue_capacity must be at least 1")
	}
	if c.Workflow.ModuleLatencyMS < 0 {
		return errors.New("workflow.module_latency_ms must not be negative")
	}
	if c.Workflow.PriorityLatencyMS < 0 {
		return errors.New("workflow.priority_latency_ms must not be negative")
	}
	return nil
}

func (c *Config) validateCreative() error {
	if c.Creative.AmplifierDepth < 1 {
		return errors.New("creative.amplifier_depth must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
