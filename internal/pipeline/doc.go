// Package pipeline drives the checkpointed shorts workflow.
//
// A Controller owns one stage.Handler per checkpoint state:
//
//	start             -> queries    -> queries-ready
//	queries-ready     -> discovery  -> shorts-ready
//	shorts-ready      -> enrichment -> transcripts-ready
//	transcripts-ready -> export     -> done
//
// Advance runs exactly one stage against a caller supplied payload and
// returns the next state with the updated payload; no state is kept between
// calls. RunAll chains every stage in memory and returns the run summary.
//
// Stage runs are logged with stage_start, stage_complete, and stage_failure
// events and timed through the metrics package.
package pipeline
