package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shortscout/internal/services"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps an OpenRouter-style chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

const translationPrompt = `You translate transcripts of short videos.
Translate the user's text into the language with ISO 639-1 code %q.
Keep the meaning and tone; do not summarize or add commentary.
Respond with JSON only: {"translation": "<translated text>"}`

// Translate returns text translated into the target language.
func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	text = strings.TrimSpace(text)
	target = strings.TrimSpace(target)
	if text == "" {
		return "", nil
	}
	if target == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "target language required", nil)
	}
	if !c.Configured() {
		return "", services.Wrap(services.ErrConfiguration, "llm", "translate",
			"Set OPENROUTER_API_KEY in environment or llm.api_key in config", nil)
	}
	content, err := c.completeJSON(ctx, fmt.Sprintf(translationPrompt, target), text, "llm translate")
	if err != nil {
		return "", classify("translate", err)
	}
	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", "translate", "parse payload", err)
	}
	return strings.TrimSpace(parsed.Translation), nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Configured() {
		return services.Wrap(services.ErrConfiguration, "llm", "health", "api key required", nil)
	}
	content, err := c.completeJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`, "llm health")
	if err != nil {
		return classify("health", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func classify(operation string, err error) error {
	var status *statusError
	if errors.As(err, &status) && (status.code == http.StatusUnauthorized || status.code == http.StatusForbidden) {
		return services.Wrap(services.ErrConfiguration, "llm", operation, "API key rejected", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "llm", operation, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrTransient, "llm", operation, "request failed", err)
}
