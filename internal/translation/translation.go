// Package translation turns transcript text into the configured target language.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/services"
	"shortscout/internal/services/llm"
)

// Provider translates text into the target language code.
type Provider interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// New builds the provider named by translation.provider.
func New(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Translation.Provider)) {
	case config.TranslationProviderStub, "":
		return NewStub(logger), nil
	case config.TranslationProviderLLM:
		llmCfg := cfg.GetLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
		return NewLLM(client, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translation", "select provider",
			fmt.Sprintf("unsupported provider %q", cfg.Translation.Provider), nil)
	}
}

// Stub is the placeholder translator. It never produces text.
type Stub struct {
	logger *slog.Logger
}

// NewStub constructs the placeholder translator.
func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logging.NewComponentLogger(logger, "translation")}
}

// Translate logs that no translation backend is configured and returns "".
func (s *Stub) Translate(_ context.Context, text, target string) (string, error) {
	if text == "" {
		return "", nil
	}
	s.logger.Debug("stub translator skipped text",
		logging.String("target_language", target),
		logging.Int("chars", len(text)),
	)
	return "", nil
}

// Translator is the subset of the llm client used here.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
	HealthCheck(ctx context.Context) error
}

// LLM translates through an OpenRouter-compatible chat completion endpoint.
type LLM struct {
	client Translator
	logger *slog.Logger
}

// NewLLM wraps an llm client.
func NewLLM(client Translator, logger *slog.Logger) *LLM {
	return &LLM{client: client, logger: logging.NewComponentLogger(logger, "translation")}
}

// Translate returns "" for empty input without calling the model.
func (l *LLM) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := l.client.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HealthCheck pings the model so diagnostics can report reachability.
func (l *LLM) HealthCheck(ctx context.Context) error {
	return l.client.HealthCheck(ctx)
}
