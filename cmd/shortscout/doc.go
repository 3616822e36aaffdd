// Package main hosts the shortscout CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the shorts pipeline end to end, steps it one
// checkpoint at a time against a session file, prints query expansions and
// single-video transcripts, checks provider readiness, and serves the pipeline
// as MCP tools over stdio. It centralizes configuration resolution and logging
// setup so subcommands can focus on output.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it through dedicated commands or flags here.
package main
