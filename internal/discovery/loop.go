package discovery

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"shortscout/internal/logging"
	"shortscout/internal/metrics"
	"shortscout/internal/queries"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

const (
	defaultPageSize  = 50
	defaultBatchSize = 50
)

// Searcher is the video search and metadata provider.
type Searcher interface {
	Search(ctx context.Context, q shorts.SearchQuery) ([]string, error)
	Details(ctx context.Context, ids []string) ([]shorts.Candidate, error)
}

// Options tune paging and the extension bound.
type Options struct {
	PageSize  int
	BatchSize int
	// MaxQueries caps the number of queries tried; zero means no cap.
	MaxQueries int
}

// Request describes one discovery run.
type Request struct {
	Topic          string
	Language       string
	Region         string
	PublishedAfter string
	Target         int
	// Queries seeds the loop. When empty the topic is expanded.
	Queries []string
}

// Result is the ranked outcome of a run.
type Result struct {
	// Queries is the full query list, including any extension.
	Queries    []string
	Candidates []shorts.Candidate
	// Searched counts the queries actually sent to the provider.
	Searched int
}

// Loop runs discovery against a Searcher.
type Loop struct {
	searcher Searcher
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewLoop constructs a discovery loop.
func NewLoop(searcher Searcher, opts Options, logger *slog.Logger, m *metrics.Metrics) *Loop {
	if opts.PageSize <= 0 || opts.PageSize > defaultPageSize {
		opts.PageSize = defaultPageSize
	}
	if opts.BatchSize <= 0 || opts.BatchSize > defaultBatchSize {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxQueries < 0 {
		opts.MaxQueries = 0
	}
	return &Loop{
		searcher: searcher,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "discovery"),
		metrics:  m,
	}
}

// Discover collects up to the request target of unique shorts and returns
// them ranked by view count.
func (l *Loop) Discover(ctx context.Context, req Request) (Result, error) {
	list := uniqueQueries(req.Queries)
	if len(list) == 0 {
		list = queries.Expand(req.Topic, req.Language)
	}
	limit := shorts.Limit(req.Target)
	logger := logging.WithContext(ctx, l.logger)

	seen := make(map[string]struct{})
	tried := make(map[string]bool, len(list))
	accepted := make([]shorts.Candidate, 0, limit)
	searched := 0

	for len(accepted) < limit {
		query, ok := firstUntried(list, tried)
		if !ok {
			extended := queries.Extend(req.Topic, list, req.Language)
			if _, more := firstUntried(extended, tried); !more {
				logger.Info("query list exhausted",
					logging.Int("queries", len(list)),
					logging.Int("accepted", len(accepted)),
				)
				break
			}
			logger.Debug("extending query list",
				logging.Int("before", len(list)),
				logging.Int("after", len(extended)),
			)
			list = extended
			continue
		}
		if l.opts.MaxQueries > 0 && searched >= l.opts.MaxQueries {
			logger.Info("query cap reached", logging.Int("max_queries", l.opts.MaxQueries))
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		tried[query] = true
		searched++

		fresh, err := l.search(ctx, logger, req, query, seen)
		if err != nil {
			return Result{}, err
		}
		if len(fresh) == 0 {
			continue
		}
		if err := l.collect(ctx, logger, fresh, seen, &accepted, limit); err != nil {
			return Result{}, err
		}
	}

	ranked := shorts.RankAndTruncate(accepted, req.Target)
	return Result{Queries: list, Candidates: ranked, Searched: searched}, nil
}

// uniqueQueries trims seeded queries and drops blanks and repeats, keeping
// the first occurrence.
func uniqueQueries(in []string) []string {
	out := make([]string, 0, len(in))
	kept := make(map[string]bool, len(in))
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" || kept[q] {
			continue
		}
		kept[q] = true
		out = append(out, q)
	}
	return out
}

func firstUntried(list []string, tried map[string]bool) (string, bool) {
	for _, q := range list {
		if !tried[q] {
			return q, true
		}
	}
	return "", false
}

// search returns the ids for query that have not been seen yet, in provider
// order. Recoverable failures yield no ids.
func (l *Loop) search(ctx context.Context, logger *slog.Logger, req Request, query string, seen map[string]struct{}) ([]string, error) {
	started := time.Now()
	ids, err := l.searcher.Search(ctx, shorts.SearchQuery{
		Query:          query,
		Region:         req.Region,
		Language:       req.Language,
		PublishedAfter: req.PublishedAfter,
		MaxResults:     l.opts.PageSize,
	})
	l.metrics.QuerySearched()
	if err != nil {
		if services.IsFatal(err) {
			return nil, err
		}
		l.metrics.ProviderError("search")
		logging.WarnWithContext(logger, "search failed; treating as no results", "search_failed",
			logging.Query(query),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check provider quota and connectivity"),
		)
		return nil, nil
	}

	fresh := make([]string, 0, len(ids))
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := batch[id]; ok {
			continue
		}
		batch[id] = struct{}{}
		fresh = append(fresh, id)
	}
	logger.Debug("query searched",
		logging.Query(query),
		logging.Int("ids", len(ids)),
		logging.Int("new_ids", len(fresh)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return fresh, nil
}

// collect fetches details for ids in batches and appends unseen shorts until
// limit is reached.
func (l *Loop) collect(ctx context.Context, logger *slog.Logger, ids []string, seen map[string]struct{}, accepted *[]shorts.Candidate, limit int) error {
	for start := 0; start < len(ids) && len(*accepted) < limit; start += l.opts.BatchSize {
		end := min(start+l.opts.BatchSize, len(ids))
		batch := ids[start:end]
		details, err := l.searcher.Details(ctx, batch)
		if err != nil {
			if services.IsFatal(err) {
				return err
			}
			l.metrics.ProviderError("details")
			logging.WarnWithContext(logger, "details lookup failed; skipping batch", "details_failed",
				logging.Int("batch_size", len(batch)),
				logging.Error(err),
			)
			continue
		}
		for _, cand := range orderByIDs(details, batch) {
			if _, ok := seen[cand.ID]; ok {
				continue
			}
			seen[cand.ID] = struct{}{}
			if !shorts.IsShort(cand.Duration) {
				continue
			}
			if cand.URL == "" {
				cand.URL = shorts.WatchURL(cand.ID)
			}
			*accepted = append(*accepted, cand)
			l.metrics.CandidateAccepted()
			if len(*accepted) >= limit {
				return nil
			}
		}
	}
	return nil
}

// orderByIDs returns details in the order of ids, dropping entries without
// an id and duplicates. Details for ids outside the list keep provider order
// after the known ones.
func orderByIDs(details []shorts.Candidate, ids []string) []shorts.Candidate {
	byID := make(map[string]shorts.Candidate, len(details))
	var extra []shorts.Candidate
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	for _, d := range details {
		if d.ID == "" {
			continue
		}
		if _, ok := known[d.ID]; !ok {
			extra = append(extra, d)
			continue
		}
		if _, dup := byID[d.ID]; !dup {
			byID[d.ID] = d
		}
	}
	ordered := make([]shorts.Candidate, 0, len(byID)+len(extra))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return append(ordered, extra...)
}

// PublishedAfter returns the start of the recency window, now minus days, as
// RFC3339 in UTC.
func PublishedAfter(now time.Time, days int) string {
	if days < 0 {
		days = 0
	}
	return now.UTC().AddDate(0, 0, -days).Format(time.RFC3339)
}
