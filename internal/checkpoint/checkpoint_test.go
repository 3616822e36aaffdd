package checkpoint_test

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"shortscout/internal/checkpoint"
	"shortscout/internal/shorts"
)

func TestStateProgression(t *testing.T) {
	states := checkpoint.AllStates()
	for i, state := range states[:len(states)-1] {
		next, ok := state.Next()
		if !ok {
			t.Fatalf("%s should have a successor", state)
		}
		if next != states[i+1] {
			t.Fatalf("%s.Next() = %s, want %s", state, next, states[i+1])
		}
	}
	if _, ok := checkpoint.StateDone.Next(); ok {
		t.Fatal("done must not have a successor")
	}
	if !checkpoint.StateDone.Terminal() || checkpoint.StateStart.Terminal() {
		t.Fatal("unexpected terminal flags")
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want checkpoint.State
		ok   bool
	}{
		{"start", checkpoint.StateStart, true},
		{" Queries-Ready ", checkpoint.StateQueriesReady, true},
		{"shorts_ready", checkpoint.StateShortsReady, true},
		{"transcripts-ready", checkpoint.StateTranscriptsReady, true},
		{"done", checkpoint.StateDone, true},
		{"", "", false},
		{"exporting", "exporting", false},
	}
	for _, tt := range tests {
		got, ok := checkpoint.ParseState(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseState(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseBlankPayload(t *testing.T) {
	payload, err := checkpoint.Parse("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RunID != "" || len(payload.Queries) != 0 || len(payload.Results) != 0 {
		t.Fatalf("expected empty payload, got %+v", payload)
	}
}

func TestParseInvalidPayload(t *testing.T) {
	if _, err := checkpoint.Parse("{not json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestPayloadKeepsEmptyCollections(t *testing.T) {
	payload := checkpoint.Payload{
		RunID:   "run-2",
		Params:  checkpoint.Params{Topic: "tea", Target: 3},
		Queries: []string{"tea"},
	}
	for _, tt := range []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{name: "encode", encode: func() ([]byte, error) {
			raw, err := payload.Encode()
			return []byte(raw), err
		}},
		{name: "embedded", encode: func() ([]byte, error) {
			return json.Marshal(struct {
				Payload checkpoint.Payload `json:"payload"`
			}{payload})
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !strings.Contains(string(raw), `"results":[]`) {
				t.Fatalf("expected empty results array in %s", raw)
			}
		})
	}

	raw, err := checkpoint.Payload{Params: checkpoint.Params{Topic: "tea", Target: 1}}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(raw, `"queries":[]`) || !strings.Contains(raw, `"results":[]`) {
		t.Fatalf("expected both collections present in %s", raw)
	}
	decoded, err := checkpoint.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(decoded.Queries) != 0 || len(decoded.Results) != 0 {
		t.Fatalf("expected empty collections, got %+v", decoded)
	}
}

func TestPayloadWireFormat(t *testing.T) {
	payload := checkpoint.Payload{
		RunID: "run-1",
		Params: checkpoint.Params{
			Topic: "cooking", Language: "en", Region: "US", Days: 30, Target: 3,
			PublishedAfter: "2026-09-18T00:00:00Z",
		},
		Queries: []string{"cooking", "cooking shorts"},
		Results: []shorts.EnrichedRow{
			{Candidate: shorts.Candidate{ID: "b", ViewCount: "200", Duration: "PT10S"}, Transcript: "hi", Translation: "привет"},
			{Candidate: shorts.Candidate{ID: "a", ViewCount: "100", Duration: "PT30S"}},
		},
	}
	raw, err := payload.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for _, key := range []string{"run_id", "params", "queries", "results"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected %q in %s", key, raw)
		}
	}
	if _, ok := fields["summary"]; ok {
		t.Fatalf("expected empty summary omitted, got %s", raw)
	}
	if !strings.Contains(string(fields["params"]), `"published_after":"2026-09-18T00:00:00Z"`) {
		t.Fatalf("unexpected params %s", fields["params"])
	}

	decoded, err := checkpoint.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !slices.Equal(decoded.Queries, payload.Queries) {
		t.Fatalf("query order lost: %q", decoded.Queries)
	}
	if decoded.Results[0].ID != "b" || decoded.Results[0].Translation != "привет" {
		t.Fatalf("result order or enrichment lost: %+v", decoded.Results)
	}
	if decoded.Params != payload.Params {
		t.Fatalf("params changed: %+v", decoded.Params)
	}
}

func TestParseAcceptsNumericViewCounts(t *testing.T) {
	payload, err := checkpoint.Parse(`{"results":[{"id":"x","view_count":42}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := payload.Candidates()[0].ViewCount.Int(); got != 42 {
		t.Fatalf("view count = %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	payload := checkpoint.Payload{Queries: []string{"a"}}
	clone := payload.Clone()
	clone.Queries[0] = "b"
	if payload.Queries[0] != "a" {
		t.Fatal("clone shares query storage")
	}
}
