// Package youtube adapts the YouTube Data API v3 to the discovery search
// contract: keyword search for video ids and batched metadata lookups.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"shortscout/internal/logging"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

const (
	maxPageSize  = 50
	searchOrder  = "viewCount"
	durationHint = "short"
)

var searchParts = []string{"snippet"}
var detailParts = []string{"contentDetails", "snippet", "statistics"}

// MissingKeyMessage is reported when no API key is configured.
const MissingKeyMessage = "Set YOUTUBE_API_KEY in environment or config"

// Config holds client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client searches YouTube and fetches video details.
type Client struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.Mutex
	service *ytapi.Service
}

// New constructs a client. The underlying service is created lazily so a
// missing key only fails the calls that need it.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logging.NewComponentLogger(logger, "youtube"),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

func (c *Client) ensureService(ctx context.Context) (*ytapi.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.service != nil {
		return c.service, nil
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init", MissingKeyMessage, nil)
	}
	opts := []option.ClientOption{option.WithAPIKey(c.cfg.APIKey)}
	if base := strings.TrimSpace(c.cfg.BaseURL); base != "" {
		opts = append(opts, option.WithEndpoint(base))
	}
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init", "create YouTube service", err)
	}
	c.service = svc
	return svc, nil
}

// Search returns video ids for a query, most viewed first, restricted to
// short-duration videos published after the query's window start.
func (c *Client) Search(ctx context.Context, q shorts.SearchQuery) ([]string, error) {
	svc, err := c.ensureService(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", "search", "rate limiter", err)
	}
	maxResults := q.MaxResults
	if maxResults <= 0 || maxResults > maxPageSize {
		maxResults = maxPageSize
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	call := svc.Search.List(searchParts).
		Q(q.Query).
		Type("video").
		MaxResults(int64(maxResults)).
		Order(searchOrder).
		VideoDuration(durationHint)
	if q.Region != "" {
		call = call.RegionCode(q.Region)
	}
	if q.Language != "" {
		call = call.RelevanceLanguage(q.Language)
	}
	if q.PublishedAfter != "" {
		call = call.PublishedAfter(q.PublishedAfter)
	}
	resp, err := call.Context(callCtx).Do()
	if err != nil {
		return nil, classify("search", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	c.logger.Debug("search complete",
		logging.Query(q.Query),
		logging.Int("ids", len(ids)),
	)
	return ids, nil
}

// Details fetches metadata for ids in chunks of at most 50. Ids the provider
// does not return are simply absent from the result.
func (c *Client) Details(ctx context.Context, ids []string) ([]shorts.Candidate, error) {
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	svc, err := c.ensureService(ctx)
	if err != nil {
		return nil, err
	}

	var out []shorts.Candidate
	for start := 0; start < len(filtered); start += maxPageSize {
		end := min(start+maxPageSize, len(filtered))
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTransient, "youtube", "details", "rate limiter", err)
		}
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		resp, err := svc.Videos.List(detailParts).Id(filtered[start:end]...).Context(callCtx).Do()
		cancel()
		if err != nil {
			return nil, classify("details", err)
		}
		for _, item := range resp.Items {
			if item == nil || item.Id == "" {
				continue
			}
			out = append(out, toCandidate(item))
		}
	}
	return out, nil
}

func toCandidate(item *ytapi.Video) shorts.Candidate {
	cand := shorts.Candidate{
		ID:  item.Id,
		URL: shorts.WatchURL(item.Id),
	}
	if s := item.Snippet; s != nil {
		cand.Title = s.Title
		cand.ChannelID = s.ChannelId
		cand.ChannelTitle = s.ChannelTitle
		cand.PublishedAt = s.PublishedAt
		cand.Description = s.Description
	}
	if d := item.ContentDetails; d != nil {
		cand.Duration = d.Duration
	}
	if st := item.Statistics; st != nil {
		cand.ViewCount = shorts.ViewCount(strconv.FormatUint(st.ViewCount, 10))
	}
	return cand
}

// configReasons are API error reasons that no retry will fix.
var configReasons = map[string]struct{}{
	"keyInvalid":          {},
	"keyExpired":          {},
	"accessNotConfigured": {},
	"ipRefererBlocked":    {},
	"forbidden":           {},
}

func classify(operation string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized {
			return services.Wrap(services.ErrConfiguration, "youtube", operation, "API key rejected", err)
		}
		for _, item := range apiErr.Errors {
			if _, ok := configReasons[item.Reason]; ok {
				return services.Wrap(services.ErrConfiguration, "youtube", operation,
					fmt.Sprintf("API key rejected (%s)", item.Reason), err)
			}
		}
		return services.Wrap(services.ErrTransient, "youtube", operation,
			fmt.Sprintf("http %d", apiErr.Code), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "youtube", operation, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "youtube", operation, "request failed", err)
}
