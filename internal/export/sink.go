package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"shortscout/internal/config"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

// Batch is the unit written by a sink: every enriched row of one run.
type Batch struct {
	RunID      string
	Topic      string
	Rows       []shorts.EnrichedRow
	ExportedAt time.Time
}

// Sink persists batches.
type Sink interface {
	Name() string
	Write(ctx context.Context, batch Batch) error
	Close() error
}

// Header lists the tabular column names shared by the csv and sheets sinks.
var Header = []string{
	"run_id", "topic", "video_id", "title", "channel_id", "channel_title",
	"published_at", "view_count", "duration", "url", "description",
	"transcript", "translation", "exported_at",
}

// New opens the sink selected by export.sink.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Sink, error) {
	exp := cfg.Export
	switch strings.ToLower(strings.TrimSpace(exp.Sink)) {
	case config.SinkNone, "":
		return None{}, nil
	case config.SinkSQLite:
		return OpenSQLite(ctx, exp.SQLitePath, logger)
	case config.SinkPostgres:
		return OpenPostgres(ctx, exp.PostgresDSN, logger)
	case config.SinkSheets:
		return OpenSheets(ctx, SheetsConfig{
			SpreadsheetID:   exp.SheetsSpreadsheetID,
			Range:           exp.SheetsRange,
			CredentialsFile: exp.SheetsCredentialsFile,
			BaseURL:         exp.SheetsBaseURL,
		}, logger)
	case config.SinkCSV:
		return NewCSV(exp.CSVDir, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "export", "select sink",
			fmt.Sprintf("unsupported sink %q", exp.Sink), nil)
	}
}

// None accepts and discards every batch.
type None struct{}

func (None) Name() string { return config.SinkNone }

func (None) Write(context.Context, Batch) error { return nil }

func (None) Close() error { return nil }

func (b Batch) exportedAt() time.Time {
	if b.ExportedAt.IsZero() {
		return time.Now().UTC()
	}
	return b.ExportedAt.UTC()
}

// records flattens the batch into Header-ordered string rows.
func (b Batch) records() [][]string {
	stamp := b.exportedAt().Format(time.RFC3339)
	out := make([][]string, 0, len(b.Rows))
	for _, row := range b.Rows {
		out = append(out, []string{
			b.RunID,
			b.Topic,
			row.ID,
			row.Title,
			row.ChannelID,
			row.ChannelTitle,
			row.PublishedAt,
			strconv.FormatInt(row.ViewCount.Int(), 10),
			row.Duration,
			rowURL(row),
			row.Description,
			row.Transcript,
			row.Translation,
			stamp,
		})
	}
	return out
}

func rowURL(row shorts.EnrichedRow) string {
	if row.URL != "" {
		return row.URL
	}
	return shorts.WatchURL(row.ID)
}
