// Package export writes enriched rows to the configured tabular sink.
//
// Every sink implements Sink.Write for a whole Batch at once. Sinks:
//   - none: discards rows (dry runs and the HTTP API default for previews)
//   - sqlite: upserts into a local modernc.org/sqlite database
//   - postgres: upserts through a pgx connection pool
//   - sheets: appends to a Google Sheets range with a service account
//   - csv: renders one file per run with go-pretty
//
// Write failures are returned to the caller unclassified or tagged with
// services markers; the pipeline treats every export error as fatal.
package export
