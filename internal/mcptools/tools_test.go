package mcptools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"shortscout/internal/checkpoint"
	"shortscout/internal/enrichment"
	"shortscout/internal/mcptools"
	"shortscout/internal/pipeline"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q shorts.SearchQuery) ([]string, error) {
	if q.Query == "baking" {
		return []string{"v1"}, nil
	}
	return nil, nil
}

func (stubSearcher) Details(_ context.Context, ids []string) ([]shorts.Candidate, error) {
	out := make([]shorts.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, shorts.Candidate{ID: id, Title: "t", Duration: "PT20S", ViewCount: "7"})
	}
	return out, nil
}

type stubTranscripts struct{ calls []string }

func (s *stubTranscripts) Fetch(_ context.Context, id, _ string) (string, error) {
	s.calls = append(s.calls, id)
	if id == "missing0000" {
		return "", services.ErrNotFound
	}
	return "transcript of " + id, nil
}

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

func connect(t *testing.T, deps mcptools.Deps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := mcptools.NewServer("test", deps)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "tester", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newDeps(t *testing.T) (mcptools.Deps, *stubTranscripts) {
	t.Helper()
	transcripts := &stubTranscripts{}
	controller, err := pipeline.NewController(pipeline.Dependencies{
		Searcher: stubSearcher{},
		Enricher: enrichment.New(transcripts, echoTranslator{}, enrichment.Options{}, nil, nil),
		Defaults: checkpoint.Params{Language: "en", Region: "US", Days: 30, Target: 5},
		Now:      func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return mcptools.Deps{Controller: controller, Transcripts: transcripts}, transcripts
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if out != nil && !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		if err != nil {
			t.Fatalf("marshal structured content: %v", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode structured content: %v (%s)", err, raw)
		}
	}
	return res
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestListsTools(t *testing.T) {
	deps, _ := newDeps(t)
	session := connect(t, deps)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"expand_queries", "checkpoint_advance", "run_pipeline", "fetch_transcript"} {
		if !names[want] {
			t.Fatalf("tool %s missing from %v", want, names)
		}
	}
}

func TestExpandQueriesTool(t *testing.T) {
	session := connect(t, mcptools.Deps{})

	var out mcptools.ExpandOutput
	res := call(t, session, "expand_queries", map[string]any{"topic": "cooking"}, &out)
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if len(out.Queries) != 8 || out.Queries[0] != "cooking" {
		t.Fatalf("queries = %v", out.Queries)
	}
	if len(out.Extended) != 14 {
		t.Fatalf("extended = %d, want 14", len(out.Extended))
	}

	res = call(t, session, "expand_queries", map[string]any{"topic": "  "}, nil)
	if !res.IsError || !strings.Contains(resultText(res), "input error") || !strings.Contains(resultText(res), "topic is required") {
		t.Fatalf("expected input error for blank topic, got %s", resultText(res))
	}
}

func TestCheckpointAdvanceToolRoundTrips(t *testing.T) {
	deps, _ := newDeps(t)
	session := connect(t, deps)

	var out mcptools.AdvanceOutput
	res := call(t, session, "checkpoint_advance", map[string]any{"state": "start", "topic": "baking"}, &out)
	if res.IsError {
		t.Fatalf("start failed: %s", resultText(res))
	}
	for out.State != string(checkpoint.StateDone) {
		prev := out.State
		res = call(t, session, "checkpoint_advance", map[string]any{"state": out.State, "payload": out.Payload}, &out)
		if res.IsError {
			t.Fatalf("advance from %s failed: %s", prev, resultText(res))
		}
	}
	payload, err := checkpoint.Parse(out.Payload)
	if err != nil {
		t.Fatalf("parse final payload: %v", err)
	}
	if payload.Summary.ShortsCount != 1 || payload.Summary.Items[0].Transcript != "transcript of v1" {
		t.Fatalf("summary = %+v", payload.Summary)
	}

	res = call(t, session, "checkpoint_advance", map[string]any{"state": "done", "payload": out.Payload}, nil)
	if !res.IsError || !strings.Contains(resultText(res), "input error") {
		t.Fatalf("expected input error for done, got %s", resultText(res))
	}
}

func TestRunPipelineTool(t *testing.T) {
	deps, _ := newDeps(t)
	session := connect(t, deps)

	var summary checkpoint.Summary
	res := call(t, session, "run_pipeline", map[string]any{"topic": "baking", "target": 3}, &summary)
	if res.IsError {
		t.Fatalf("run failed: %s", resultText(res))
	}
	if summary.Topic != "baking" || summary.ShortsCount != 1 || summary.Sink != "none" {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestFetchTranscriptTool(t *testing.T) {
	deps, transcripts := newDeps(t)
	session := connect(t, deps)

	var out mcptools.TranscriptOutput
	res := call(t, session, "fetch_transcript", map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"}, &out)
	if res.IsError {
		t.Fatalf("fetch failed: %s", resultText(res))
	}
	if out.VideoID != "dQw4w9WgXcQ" || out.Transcript != "transcript of dQw4w9WgXcQ" {
		t.Fatalf("out = %+v", out)
	}

	res = call(t, session, "fetch_transcript", map[string]any{"url": "https://example.com/video"}, nil)
	if !res.IsError || !strings.Contains(resultText(res), "input error") || !strings.Contains(resultText(res), "youtu.be link") {
		t.Fatalf("expected input error for non-YouTube url, got %s", resultText(res))
	}

	res = call(t, session, "fetch_transcript", map[string]any{"url": "https://www.youtube.com/shorts/missing0000"}, nil)
	if !res.IsError || !strings.Contains(resultText(res), "transient error") {
		t.Fatalf("expected transient error, got %s", resultText(res))
	}
	if len(transcripts.calls) != 2 {
		t.Fatalf("provider calls = %v", transcripts.calls)
	}
}
