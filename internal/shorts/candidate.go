package shorts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WatchURLPrefix is the canonical watch URL prefix for discovered videos.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return WatchURLPrefix + id
}

// ViewCount carries the provider's view count as raw text. Providers report
// it as a decimal string, older payloads carry it as a JSON number, and some
// videos hide it entirely.
type ViewCount string

// Int returns the numeric view count. Only whole decimal numbers count;
// missing, negative, fractional, and exponent values rank as zero.
func (v ViewCount) Int() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// UnmarshalJSON accepts a JSON string, number, or null.
func (v *ViewCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("view_count: %w", err)
		}
		*v = ViewCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("view_count: %w", err)
	}
	*v = ViewCount(n.String())
	return nil
}

// Candidate is a discovered video passing through the pipeline. Identity is ID.
type Candidate struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  string    `json:"published_at"`
	Description  string    `json:"description"`
	ViewCount    ViewCount `json:"view_count"`
	Duration     string    `json:"duration"`
	URL          string    `json:"url"`
}

// EnrichedRow is a candidate plus its transcript and translation. Both texts
// are empty when the provider had nothing to return.
type EnrichedRow struct {
	Candidate
	Transcript  string `json:"transcript,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// Candidates strips enrichment from a slice of rows, preserving order.
func Candidates(rows []EnrichedRow) []Candidate {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Candidate, len(rows))
	for i, row := range rows {
		out[i] = row.Candidate
	}
	return out
}

// Rows wraps candidates as rows with no enrichment, preserving order.
func Rows(candidates []Candidate) []EnrichedRow {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]EnrichedRow, len(candidates))
	for i, c := range candidates {
		out[i] = EnrichedRow{Candidate: c}
	}
	return out
}

// SearchQuery is one search request sent to the video provider.
type SearchQuery struct {
	Query          string
	Region         string
	Language       string
	PublishedAfter string
	MaxResults     int
}
