// Package shorts holds the candidate model shared by discovery, enrichment,
// and export, together with the duration rule that decides what counts as a
// short and the view-count ranking applied before enrichment.
package shorts
