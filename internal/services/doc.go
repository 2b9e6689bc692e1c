// Package services defines shared utilities consumed by the resource graph,
// the manifest assembler and the publish pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp resource IDs, operation names, release ids and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (not found, type mismatch, invalid configuration, ...) with
//     errors.Is regardless of how deep it was produced.
//   - Thin clients around external tools (drapto) that post-processors use.
//
// Use these helpers when wiring new operations so error classification and
// log fields stay uniform across packages.
package services
