// Package discovery runs the query-expanding search loop that collects short
// candidates for a topic.
//
// The loop walks the query list in order, asks the Searcher for ids, fetches
// details in batches, and keeps unseen shorts until the target is reached.
// When every query has been tried it extends the list once; if the extension
// adds nothing the loop ends with whatever it found. Provider hiccups are
// logged and treated as empty results. Configuration errors stop the run.
package discovery
