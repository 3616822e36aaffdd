// Package daemon coordinates the long-running shortscoutd process.
//
// It wires configuration, the pipeline runtime, and the HTTP server into a
// single lifecycle with flock-based locking to prevent multiple instances
// sharing one data directory. Startup runs the preflight checks and logs any
// failures so operators see a missing key before the first request fails.
//
// Keep orchestration logic here: stage behaviour lives in the pipeline
// packages while the daemon focuses on startup, shutdown, and status.
package daemon
