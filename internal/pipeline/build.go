package pipeline

import (
	"context"
	"log/slog"
	"time"

	"shortscout/internal/config"
	"shortscout/internal/discovery"
	"shortscout/internal/enrichment"
	"shortscout/internal/export"
	"shortscout/internal/metrics"
	"shortscout/internal/services/youtube"
	"shortscout/internal/transcript"
	"shortscout/internal/translation"
)

// Runtime bundles a controller with the resources it holds open.
type Runtime struct {
	Controller *Controller
	Sink       export.Sink
	Searcher   *youtube.Client
	Transcript transcript.Provider
	Translator translation.Provider
}

// Close releases the export sink.
func (r *Runtime) Close() error {
	if r == nil || r.Sink == nil {
		return nil
	}
	return r.Sink.Close()
}

// NewSearcher builds the YouTube client from config.
func NewSearcher(cfg *config.Config, logger *slog.Logger) *youtube.Client {
	return youtube.New(youtube.Config{
		APIKey:            cfg.YouTube.APIKey,
		BaseURL:           cfg.YouTube.BaseURL,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Timeout:           time.Duration(cfg.YouTube.TimeoutSeconds) * time.Second,
	}, logger)
}

// Build wires every provider and sink named in cfg into a controller.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Runtime, error) {
	searcher := NewSearcher(cfg, logger)
	transcripts, err := transcript.New(cfg.Transcripts, logger)
	if err != nil {
		return nil, err
	}
	translator, err := translation.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	sink, err := export.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	enricher := enrichment.New(transcripts, translator, enrichment.Options{
		TargetLanguage: cfg.Translation.TargetLanguage,
	}, logger, m)

	controller, err := NewController(Dependencies{
		Searcher: searcher,
		Discovery: discovery.Options{
			PageSize:   cfg.Discovery.PageSize,
			BatchSize:  cfg.Discovery.BatchSize,
			MaxQueries: cfg.Discovery.MaxQueries,
		},
		Enricher: enricher,
		Sink:     sink,
		Defaults: DefaultParams(cfg),
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	return &Runtime{
		Controller: controller,
		Sink:       sink,
		Searcher:   searcher,
		Transcript: transcripts,
		Translator: translator,
	}, nil
}
