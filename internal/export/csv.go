package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/services"
	"shortscout/internal/textutil"
)

// CSV writes one RFC 4180 file per run into a directory.
type CSV struct {
	dir    string
	logger *slog.Logger
}

// NewCSV constructs the csv sink.
func NewCSV(dir string, logger *slog.Logger) *CSV {
	return &CSV{dir: dir, logger: logging.NewComponentLogger(logger, "export")}
}

// Name implements Sink.
func (c *CSV) Name() string { return config.SinkCSV }

// Close implements Sink.
func (c *CSV) Close() error { return nil }

// FileName returns the file a batch is written to.
func (c *CSV) FileName(batch Batch) string {
	run := strings.ReplaceAll(batch.RunID, "-", "")
	if len(run) > 8 {
		run = run[:8]
	}
	if run == "" {
		run = batch.exportedAt().Format("20060102T150405")
	}
	return filepath.Join(c.dir, textutil.SanitizeToken(batch.Topic)+"-"+run+".csv")
}

// Write creates or replaces the run's file with a header and every row.
func (c *CSV) Write(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(c.dir) == "" {
		return services.Wrap(services.ErrConfiguration, "export", "csv", "export.csv_dir is empty", nil)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create csv directory: %w", err)
	}
	target := c.FileName(batch)
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(Header)
	_ = w.WriteAll(batch.records())
	if err := w.Error(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close csv: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("finalize csv: %w", err)
	}
	c.logger.Info("csv export written",
		logging.String("path", target),
		logging.Int("rows", len(batch.Rows)),
		logging.String(logging.FieldRunID, batch.RunID),
	)
	return nil
}
