// Package checkpoint defines the resumable pipeline state: the ordered State
// values a run moves through and the JSON Payload a client carries between
// calls. Nothing here runs a stage; the pipeline controller owns execution.
//
// A client that stops after any state can resume later by sending the same
// state and payload back, so Payload round-trips must be lossless and keep
// query and result order.
package checkpoint
