package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"shortscout/internal/checkpoint"
	"shortscout/internal/enrichment"
	"shortscout/internal/metrics"
	"shortscout/internal/pipeline"
	"shortscout/internal/server"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
	"shortscout/internal/transcript"
)

type fakeSearcher struct {
	err   error
	noKey bool
}

func (f fakeSearcher) Search(_ context.Context, q shorts.SearchQuery) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q.Query == "cooking" {
		return []string{"a", "b"}, nil
	}
	return nil, nil
}

func (f fakeSearcher) Details(_ context.Context, ids []string) ([]shorts.Candidate, error) {
	out := make([]shorts.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, shorts.Candidate{ID: id, Duration: "PT20S", ViewCount: "10"})
	}
	return out, nil
}

func (f fakeSearcher) Configured() bool { return !f.noKey }

func newServer(t *testing.T, searcher fakeSearcher) (*server.Server, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	controller, err := pipeline.NewController(pipeline.Dependencies{
		Searcher: searcher,
		Enricher: enrichment.New(transcript.Stub{}, nil, enrichment.Options{}, nil, m),
		Defaults: checkpoint.Params{Language: "en", Region: "US", Days: 30, Target: 5},
		Metrics:  m,
	})
	if err != nil {
		t.Fatalf("NewController returned error: %v", err)
	}
	srv, err := server.New(server.Options{Controller: controller, Gatherer: registry})
	if err != nil {
		t.Fatalf("server.New returned error: %v", err)
	}
	return srv, registry
}

func do(t *testing.T, srv *server.Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{})
	status, body := do(t, srv, http.MethodGet, "/healthz", nil)
	if status != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Fatalf("unexpected response %d %s", status, body)
	}
}

func TestHealthReportsMissingKey(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{noKey: true})
	status, body := do(t, srv, http.MethodGet, "/api/health", nil)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d %s", status, body)
	}
}

func TestExpandEndpoint(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{})
	status, body := do(t, srv, http.MethodPost, "/api/queries/expand", map[string]string{"topic": "cooking"})
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d %s", status, body)
	}
	var resp struct {
		Queries  []string `json:"queries"`
		Extended []string `json:"extended"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Queries) != 8 || len(resp.Extended) != 14 || resp.Queries[1] != "cooking shorts" {
		t.Fatalf("unexpected expansion %+v", resp)
	}

	status, body = do(t, srv, http.MethodPost, "/api/queries/expand", map[string]string{"topic": " "})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty topic, got %d %s", status, body)
	}
}

func TestCheckpointFlow(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{})

	status, body := do(t, srv, http.MethodPost, "/api/checkpoint", map[string]any{
		"state":  "start",
		"params": map[string]any{"topic": "cooking", "target": 2},
	})
	if status != http.StatusOK {
		t.Fatalf("start failed: %d %s", status, body)
	}
	var out struct {
		State   string          `json:"state"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.State != "queries-ready" {
		t.Fatalf("expected queries-ready, got %s", out.State)
	}

	// The payload may come back as an object or as an encoded string.
	status, body = do(t, srv, http.MethodPost, "/api/checkpoint", map[string]any{
		"state":   out.State,
		"payload": string(out.Payload),
	})
	if status != http.StatusOK {
		t.Fatalf("discovery failed: %d %s", status, body)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	payload, err := checkpoint.Parse(string(out.Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if out.State != "shorts-ready" || len(payload.Results) != 2 {
		t.Fatalf("unexpected discovery outcome %s %+v", out.State, payload.Results)
	}

	status, body = do(t, srv, http.MethodPost, "/api/checkpoint", map[string]any{
		"state":   "done",
		"payload": json.RawMessage(out.Payload),
	})
	if status != http.StatusBadRequest || !strings.Contains(string(body), `"kind":"input"`) {
		t.Fatalf("expected input error for done, got %d %s", status, body)
	}
}

func TestRunEndpoint(t *testing.T) {
	srv, registry := newServer(t, fakeSearcher{})
	status, body := do(t, srv, http.MethodPost, "/api/run", map[string]any{
		"params": map[string]any{"topic": "cooking", "target": 2},
	})
	if status != http.StatusOK {
		t.Fatalf("run failed: %d %s", status, body)
	}
	var summary checkpoint.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.ShortsCount != 2 || summary.Sink != "none" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metrics after a run")
	}
	status, body = do(t, srv, http.MethodGet, "/metrics", nil)
	if status != http.StatusOK || !strings.Contains(string(body), "shortscout_queries_searched_total") {
		t.Fatalf("unexpected metrics response %d", status)
	}
}

func TestRunConfigurationErrorIs503(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{err: services.Wrap(services.ErrConfiguration, "youtube", "init", "missing key", nil)})
	status, body := do(t, srv, http.MethodPost, "/api/run", map[string]any{"params": map[string]any{"topic": "cooking"}})
	if status != http.StatusServiceUnavailable || !strings.Contains(string(body), "configuration") {
		t.Fatalf("expected 503 configuration error, got %d %s", status, body)
	}
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	srv, _ := newServer(t, fakeSearcher{})
	status, body := do(t, srv, http.MethodGet, "/api/nope", nil)
	if status != http.StatusNotFound || !strings.Contains(string(body), `"error"`) {
		t.Fatalf("unexpected response %d %s", status, body)
	}
}
