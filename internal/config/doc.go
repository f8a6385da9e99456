// Package config loads, normalizes, and validates lectern's TOML
// configuration.
//
// Configuration sections by subsystem:
//   - Paths: library manifests, cache and log directories, API bind address
//   - Engine: whisper model, language, backend preference, model registry
//   - Alignment: fuzzy matching threshold and confidence constants
//   - Extraction: document text heuristics
//   - Workflow: queue polling intervals
//   - Logging: log format and level
//
// Load reads ~/.config/lectern/config.toml (or an explicit path), applies
// defaults for missing values, expands ~ in paths, and validates the result.
package config
