package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"shortscout/internal/config"
	"shortscout/internal/deps"
	"shortscout/internal/export"
	"shortscout/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckYouTubeKey reports whether a Data API key is available. The key is not
// exercised because every search call costs quota.
func CheckYouTubeKey(apiKey string) Result {
	const name = "YouTube Data API"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "API key missing (set youtube.api_key or YOUTUBE_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured"}
}

// CheckTranscriptBinary verifies the yt-dlp executable resolves on PATH.
func CheckTranscriptBinary(binary string) Result {
	const name = "yt-dlp"
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     binary,
		Description: "Required by the ytdlp transcript provider",
	}})[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: status.Path}
}

// CheckSink opens the configured export sink and closes it again. Opening
// applies the schema for database sinks and reads credentials for Sheets.
func CheckSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	name := fmt.Sprintf("Export sink (%s)", cfg.Export.Sink)
	switch cfg.Export.Sink {
	case config.SinkNone:
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	case config.SinkCSV:
		return CheckDirectoryAccess(name, cfg.Export.CSVDir)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sink, err := export.New(checkCtx, cfg, logger)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := sink.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("close: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
