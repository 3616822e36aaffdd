package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shortscout/internal/config"
	"shortscout/internal/services"
)

func TestStubReturnsEmpty(t *testing.T) {
	out, err := NewStub(nil).Translate(context.Background(), "hello", "ru")
	if err != nil || out != "" {
		t.Fatalf("stub Translate = %q, %v", out, err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.Provider = config.TranslationProviderLLM
	cfg.LLM.APIKey = "k"
	provider, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := provider.(*LLM); !ok {
		t.Fatalf("expected *LLM, got %T", provider)
	}

	cfg.Translation.Provider = "deepl"
	if _, err := New(&cfg, nil); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLLMTranslateCallsEndpoint(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": `{"translation": " привет "}`},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Translation.Provider = config.TranslationProviderLLM
	cfg.LLM.APIKey = "k"
	cfg.LLM.BaseURL = server.URL
	provider, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out, err := provider.Translate(context.Background(), "hello", "ru")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out != "привет" {
		t.Fatalf("unexpected translation %q", out)
	}
	if _, err := provider.Translate(context.Background(), "   ", "ru"); err != nil {
		t.Fatalf("blank text returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
}

func TestLLMWithoutKeyIsConfigurationError(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.Provider = config.TranslationProviderLLM
	provider, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = provider.Translate(context.Background(), "hello", "ru")
	if services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
