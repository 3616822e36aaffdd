package preflight

import (
	"context"
	"log/slog"

	"shortscout/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckYouTubeKey(cfg.YouTube.APIKey),
	}

	if cfg.Transcripts.Provider == config.TranscriptProviderYTDLP {
		results = append(results, CheckTranscriptBinary(cfg.Transcripts.YTDLPBinary))
	}

	if cfg.Translation.Provider == config.TranslationProviderLLM {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.GetLLM()))
	}

	results = append(results, CheckSink(ctx, cfg, logger))
	return results
}
