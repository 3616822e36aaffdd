// Package enrichment attaches transcripts and translations to ranked shorts.
package enrichment

import (
	"context"
	"log/slog"
	"strings"

	"shortscout/internal/logging"
	"shortscout/internal/metrics"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

// DefaultTargetLanguage is used when no translation target is configured.
const DefaultTargetLanguage = "ru"

// Transcriber fetches the transcript for one video.
type Transcriber interface {
	Fetch(ctx context.Context, videoID, language string) (string, error)
}

// Translator translates transcript text.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Options configures an Enricher.
type Options struct {
	// TargetLanguage is the translation target, "ru" when empty.
	TargetLanguage string
	// Language is the transcript language hint passed to the transcriber.
	Language string
}

// Enricher runs the transcript and translation providers over candidates.
type Enricher struct {
	transcripts Transcriber
	translator  Translator
	opts        Options
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New constructs an Enricher.
func New(transcripts Transcriber, translator Translator, opts Options, logger *slog.Logger, m *metrics.Metrics) *Enricher {
	if strings.TrimSpace(opts.TargetLanguage) == "" {
		opts.TargetLanguage = DefaultTargetLanguage
	}
	return &Enricher{
		transcripts: transcripts,
		translator:  translator,
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "enrichment"),
		metrics:     m,
	}
}

// ForLanguage returns a copy that requests transcripts in language.
func (e *Enricher) ForLanguage(language string) *Enricher {
	clone := *e
	clone.opts.Language = language
	return &clone
}

// Enrich returns one row per candidate in input order. Configuration errors
// abort; any other provider failure leaves the affected field empty.
func (e *Enricher) Enrich(ctx context.Context, candidates []shorts.Candidate) ([]shorts.EnrichedRow, error) {
	rows := make([]shorts.EnrichedRow, 0, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := shorts.EnrichedRow{Candidate: cand}

		transcript, err := e.transcript(ctx, cand.ID)
		if err != nil {
			return nil, err
		}
		row.Transcript = transcript

		if transcript != "" {
			translation, err := e.translate(ctx, cand.ID, transcript)
			if err != nil {
				return nil, err
			}
			row.Translation = translation
		}
		rows = append(rows, row)
	}
	e.logger.Info("enrichment complete",
		logging.Int("rows", len(rows)),
		logging.Int("with_transcript", countTranscripts(rows)),
		logging.String(logging.FieldEventType, "enrichment_complete"),
	)
	return rows, nil
}

func (e *Enricher) transcript(ctx context.Context, videoID string) (string, error) {
	if e.transcripts == nil {
		return "", nil
	}
	text, err := e.transcripts.Fetch(ctx, videoID, e.opts.Language)
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	if services.KindOf(err) == services.KindConfiguration {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	e.metrics.ProviderError("transcript")
	logging.WarnWithContext(logging.WithContext(ctx, e.logger), "transcript unavailable", "transcript_degraded",
		logging.VideoID(videoID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check transcripts.provider and network access"),
		logging.String(logging.FieldImpact, "row exported without transcript"),
	)
	return "", nil
}

func (e *Enricher) translate(ctx context.Context, videoID, text string) (string, error) {
	if e.translator == nil {
		return "", nil
	}
	out, err := e.translator.Translate(ctx, text, e.opts.TargetLanguage)
	if err == nil {
		return out, nil
	}
	if services.KindOf(err) == services.KindConfiguration {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	e.metrics.ProviderError("translate")
	logging.WarnWithContext(logging.WithContext(ctx, e.logger), "translation unavailable", "translation_degraded",
		logging.VideoID(videoID),
		logging.String("target_language", e.opts.TargetLanguage),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check translation.provider and llm settings"),
		logging.String(logging.FieldImpact, "row exported without translation"),
	)
	return "", nil
}

func countTranscripts(rows []shorts.EnrichedRow) int {
	n := 0
	for _, row := range rows {
		if row.Transcript != "" {
			n++
		}
	}
	return n
}
