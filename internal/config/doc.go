// Package config loads, defaults, normalizes, and validates the TOML
// configuration shared by the echonexus daemon and CLI.
//
// Load resolves the config path (flag override, then the user config dir,
// then a project-local echonexus.toml), decodes it over Default(), expands
// all path fields, and validates the result. EnsureDirectories provisions
// the staging, processed, quarantine, and log directories the pipeline
// relies on.
package config
