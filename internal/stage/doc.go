// Package stage defines the contract shared by pipeline stage handlers and
// the health record they report for diagnostics.
package stage
