// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper, and KindOf which sorts
//     failures into input, configuration, and transient classes so stages know
//     whether to abort or degrade.
//
// Use these helpers when wiring new provider or stage logic so operational
// behaviour (error handling, observability) stays uniform across the pipeline.
package services
