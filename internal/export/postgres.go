package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/services"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS shorts (
	run_id TEXT NOT NULL,
	topic TEXT NOT NULL,
	video_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	channel_id TEXT NOT NULL DEFAULT '',
	channel_title TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	view_count BIGINT NOT NULL DEFAULT 0,
	duration TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL DEFAULT '',
	translation TEXT NOT NULL DEFAULT '',
	exported_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, video_id)
)`

const postgresUpsert = `
INSERT INTO shorts (
	run_id, topic, video_id, title, channel_id, channel_title, published_at,
	description, view_count, duration, url, transcript, translation, exported_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (run_id, video_id) DO UPDATE SET
	view_count = EXCLUDED.view_count,
	transcript = EXCLUDED.transcript,
	translation = EXCLUDED.translation,
	exported_at = EXCLUDED.exported_at`

// Postgres writes rows through a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects, pings, and ensures the shorts table exists.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, services.Wrap(services.ErrConfiguration, "export", "open postgres",
			"set export.postgres_dsn or DATABASE_URL", nil)
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "open postgres", "parse dsn", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "open postgres", "create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, services.Wrap(services.ErrTransient, "export", "open postgres", "ping", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &Postgres{pool: pool, logger: logging.NewComponentLogger(logger, "export")}, nil
}

// Name implements Sink.
func (p *Postgres) Name() string { return config.SinkPostgres }

// Close releases the pool.
func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Ping verifies the database answers queries.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Write upserts the batch inside one transaction using a pipelined pgx batch.
func (p *Postgres) Write(ctx context.Context, batch Batch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	stamp := batch.exportedAt()
	queued := &pgx.Batch{}
	for _, row := range batch.Rows {
		queued.Queue(postgresUpsert,
			batch.RunID, batch.Topic, row.ID, row.Title, row.ChannelID, row.ChannelTitle,
			row.PublishedAt, row.Description, row.ViewCount.Int(), row.Duration, rowURL(row),
			row.Transcript, row.Translation, stamp,
		)
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, queued).Close()
	})
	if err != nil {
		return fmt.Errorf("postgres write: %w", err)
	}
	p.logger.Debug("rows written",
		logging.Int("rows", len(batch.Rows)),
		logging.String(logging.FieldRunID, batch.RunID),
	)
	return nil
}

// CountRun returns the number of stored rows for runID.
func (p *Postgres) CountRun(ctx context.Context, runID string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM shorts WHERE run_id = $1", runID).Scan(&n)
	return n, err
}
