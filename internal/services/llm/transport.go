package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completion struct {
	Choices []choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// choice accepts both the message and the streaming delta shape; some
// OpenAI-compatible gateways send deltas even when stream is off.
type choice struct {
	Message      reply  `json:"message"`
	Delta        reply  `json:"delta"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type reply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// statusError is a non-2xx response from the completion endpoint.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, strings.TrimSpace(e.body))
}

var errEmptyCompletion = errors.New("empty completion")

// completeJSON sends one system/user exchange in JSON mode and returns the
// first non-empty choice, retrying transient failures.
func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt, op string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(systemPrompt)},
			{Role: "user", Content: strings.TrimSpace(userPrompt)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	attempts := max(c.retryMaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		content, err := c.post(ctx, req)
		if err == nil {
			return content, nil
		}
		wait, retryable := c.retryWait(ctx, err, attempt)
		if !retryable || attempt >= attempts {
			if attempt > 1 {
				return "", fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, err)
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

func (c *Client) post(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{
			code:       resp.StatusCode,
			body:       string(raw),
			retryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded completion
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(decoded.Error.Message))
	}

	var finish, refusal string
	for _, ch := range decoded.Choices {
		for _, text := range []string{ch.Message.Content, ch.Delta.Content, ch.Text} {
			if text = strings.TrimSpace(text); text != "" {
				return text, nil
			}
		}
		if finish == "" {
			finish = ch.FinishReason
		}
		if refusal == "" {
			refusal = strings.TrimSpace(ch.Message.Refusal + ch.Delta.Refusal)
		}
	}
	return "", fmt.Errorf("%w (finish_reason=%q, refusal=%q)", errEmptyCompletion, finish, refusal)
}

// retryWait decides whether err is worth another attempt and how long to
// wait first. A Retry-After header wins over the computed backoff.
func (c *Client) retryWait(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, errEmptyCompletion) {
		return c.backoffDelay(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		switch {
		case status.code == http.StatusRequestTimeout, status.code == http.StatusTooManyRequests, status.code >= 500:
		default:
			return 0, false
		}
		if status.retryAfter > 0 {
			return min(status.retryAfter, c.maxDelay()), true
		}
		return c.backoffDelay(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay returns base * 2^(attempt-1), capped at the max delay.
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	limit := c.maxDelay()
	delay := c.retryBaseDelay
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}

func (c *Client) maxDelay() time.Duration {
	if c.retryMaxDelay > 0 {
		return c.retryMaxDelay
	}
	return defaultRetryMaxDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryAfter parses a Retry-After header in either delta-seconds or
// HTTP-date form. Unparseable or past values yield zero.
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
