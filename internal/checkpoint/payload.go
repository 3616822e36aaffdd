package checkpoint

import (
	"encoding/json"
	"slices"
	"strings"

	"shortscout/internal/shorts"
)

// Params are the run parameters fixed when a run starts.
type Params struct {
	Topic          string `json:"topic"`
	Language       string `json:"language"`
	Region         string `json:"region"`
	Days           int    `json:"days"`
	Target         int    `json:"target"`
	PublishedAfter string `json:"published_after,omitempty"`
}

// SummaryItem is one exported row as reported back to the caller.
type SummaryItem struct {
	URL        string `json:"url"`
	Transcript string `json:"transcript"`
}

// Summary reports the outcome of a completed run.
type Summary struct {
	Topic       string        `json:"topic"`
	QueryCount  int           `json:"query_count"`
	ShortsCount int           `json:"shorts_count"`
	RowsWritten int           `json:"rows_written"`
	Sink        string        `json:"sink,omitempty"`
	Items       []SummaryItem `json:"items"`
}

// Payload is the serialized snapshot handed back to the client after each
// stage. Results hold plain candidates after discovery and enriched rows after
// enrichment; both share one JSON shape.
type Payload struct {
	RunID   string               `json:"run_id,omitempty"`
	Params  Params               `json:"params,omitzero"`
	Queries []string             `json:"queries"`
	Results []shorts.EnrichedRow `json:"results"`
	Summary Summary              `json:"summary,omitzero"`
}

// Parse loads a payload from JSON, returning an empty payload on blank input.
func Parse(raw string) (Payload, error) {
	var payload Payload
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Payload{}, err
	}
	return payload, nil
}

// MarshalJSON writes queries and results as arrays even before their stage
// has run, so clients always see both keys.
func (p Payload) MarshalJSON() ([]byte, error) {
	type plain Payload
	if p.Queries == nil {
		p.Queries = []string{}
	}
	if p.Results == nil {
		p.Results = []shorts.EnrichedRow{}
	}
	return json.Marshal(plain(p))
}

// Encode serialises the payload to JSON.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Clone returns a copy whose slices can be modified without touching p.
func (p Payload) Clone() Payload {
	out := p
	out.Queries = slices.Clone(p.Queries)
	out.Results = slices.Clone(p.Results)
	out.Summary.Items = slices.Clone(p.Summary.Items)
	return out
}

// Candidates returns the results as plain candidates.
func (p Payload) Candidates() []shorts.Candidate {
	return shorts.Candidates(p.Results)
}
