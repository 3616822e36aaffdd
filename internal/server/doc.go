// Package server exposes the checkpoint pipeline over HTTP with fiber.
//
// Routes:
//
//	GET  /healthz             liveness
//	GET  /api/health          stage readiness, 503 when any stage is not ready
//	GET  /api/defaults        run parameter defaults for form prefill
//	POST /api/queries/expand  query expansion preview
//	POST /api/checkpoint      advance one checkpoint
//	POST /api/run             run every stage and return the summary
//	GET  /metrics             Prometheus exposition
//
// The server keeps no pipeline state: every checkpoint request carries the
// payload returned by the previous one.
package server
