// Package services defines shared utilities consumed by the pipeline stage
// handlers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, subject IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     messages consistent across stages.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
