package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shortscout/internal/services"
)

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewEncoder(w).Encode(completionResponse(`{"ok":true}`)); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for rejected key, got %v", err)
	}
}

func TestTranslateSendsTargetAndDecodesCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, `"ru"`) {
			t.Errorf("expected target language in system prompt, got %+v", req.Messages)
		}
		if req.Messages[1].Content != "hello world" {
			t.Errorf("unexpected user content %q", req.Messages[1].Content)
		}
		if r.Header.Get("X-Title") != "Shortscout" {
			t.Errorf("expected title header")
		}
		_ = json.NewEncoder(w).Encode(completionResponse("```json\n{\"translation\":\"привет мир\"}\n```"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "Shortscout"})
	got, err := client.Translate(context.Background(), "  hello world ", "ru")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "привет мир" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateEmptyTextSkipsRequest(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	got, err := client.Translate(context.Background(), "   ", "ru")
	if err != nil || got != "" {
		t.Fatalf("expected empty result without error, got %q %v", got, err)
	}
}

func TestTranslateWithoutKeyIsConfigurationError(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Translate(context.Background(), "text", "ru")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranslateServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryMaxAttempts(2),
		WithRetryBackoff(0, 0),
	)
	_, err := client.Translate(context.Background(), "text", "ru")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("server errors must not be fatal")
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		_ = json.NewEncoder(w).Encode(completionResponse(`{"translation":"hola"}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Translate(context.Background(), "hello", "es")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "hola" {
		t.Fatalf("unexpected translation %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"translation":"bonjour"}`
		}
		_ = json.NewEncoder(w).Encode(completionResponse(content))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Translate(context.Background(), "hello", "fr")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "bonjour" || calls != 3 {
		t.Fatalf("expected bonjour after 3 calls, got %q after %d", got, calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := client.backoffDelay(i + 1); got != w {
			t.Fatalf("attempt %d delay = %s, want %s", i+1, got, w)
		}
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Translation string `json:"translation"`
	}
	inputs := []string{
		`{"translation":"a"}`,
		"```json\n{\"translation\":\"a\"}\n```",
		`Here you go: {"translation":"a"} thanks`,
	}
	for _, in := range inputs {
		out.Translation = ""
		if err := DecodeLLMJSON(in, &out); err != nil {
			t.Fatalf("DecodeLLMJSON(%q): %v", in, err)
		}
		if out.Translation != "a" {
			t.Fatalf("DecodeLLMJSON(%q) = %q", in, out.Translation)
		}
	}
	if err := DecodeLLMJSON("no json here", &out); err == nil {
		t.Fatal("expected error for prose")
	}
	if err := DecodeLLMJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
