// Package services defines shared utilities consumed by the pipeline stages
// and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, asset names, stages, and output
//     variants for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     recoverable transform failure from a fatal backup failure with errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
