package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"shortscout/internal/checkpoint"
	"shortscout/internal/discovery"
	"shortscout/internal/enrichment"
	"shortscout/internal/export"
	"shortscout/internal/metrics"
	"shortscout/internal/queries"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
	"shortscout/internal/stage"
)

// Stage names used in logs, metrics, and health reports.
const (
	StageQueries    = "queries"
	StageDiscovery  = "discovery"
	StageEnrichment = "enrichment"
	StageExport     = "export"
)

// queriesStage assigns the run id and expands the topic.
type queriesStage struct{}

func (queriesStage) Name() string { return StageQueries }

func (queriesStage) Execute(_ context.Context, payload *checkpoint.Payload) error {
	if payload.RunID == "" {
		payload.RunID = uuid.NewString()
	}
	payload.Queries = queries.Expand(payload.Params.Topic, payload.Params.Language)
	if len(payload.Queries) == 0 {
		return services.Wrap(services.ErrValidation, StageQueries, "expand", "Please provide a topic", nil)
	}
	return nil
}

func (queriesStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(StageQueries)
}

// configured is implemented by providers that can report missing credentials
// without a network call.
type configured interface {
	Configured() bool
}

// discoveryStage runs the search loop and stores ranked candidates.
type discoveryStage struct {
	loop     *discovery.Loop
	searcher discovery.Searcher
}

func (s discoveryStage) Name() string { return StageDiscovery }

func (s discoveryStage) Execute(ctx context.Context, payload *checkpoint.Payload) error {
	params := payload.Params
	result, err := s.loop.Discover(ctx, discovery.Request{
		Topic:          params.Topic,
		Language:       params.Language,
		Region:         params.Region,
		PublishedAfter: params.PublishedAfter,
		Target:         params.Target,
		Queries:        payload.Queries,
	})
	if err != nil {
		return err
	}
	payload.Queries = result.Queries
	payload.Results = shorts.Rows(result.Candidates)
	return nil
}

func (s discoveryStage) HealthCheck(context.Context) stage.Health {
	if c, ok := s.searcher.(configured); ok && !c.Configured() {
		return stage.Unhealthy(StageDiscovery, "search provider API key missing")
	}
	return stage.Healthy(StageDiscovery)
}

// enrichmentStage attaches transcripts and translations.
type enrichmentStage struct {
	enricher *enrichment.Enricher
}

func (s enrichmentStage) Name() string { return StageEnrichment }

func (s enrichmentStage) Execute(ctx context.Context, payload *checkpoint.Payload) error {
	rows, err := s.enricher.ForLanguage(payload.Params.Language).Enrich(ctx, payload.Candidates())
	if err != nil {
		return err
	}
	payload.Results = rows
	return nil
}

func (s enrichmentStage) HealthCheck(context.Context) stage.Health {
	if s.enricher == nil {
		return stage.Unhealthy(StageEnrichment, "enricher not configured")
	}
	return stage.Healthy(StageEnrichment)
}

// exportStage writes rows to the sink and builds the summary.
type exportStage struct {
	sink    export.Sink
	metrics *metrics.Metrics
}

func (s exportStage) Name() string { return StageExport }

func (s exportStage) Execute(ctx context.Context, payload *checkpoint.Payload) error {
	batch := export.Batch{
		RunID: payload.RunID,
		Topic: payload.Params.Topic,
		Rows:  payload.Results,
	}
	if err := s.sink.Write(ctx, batch); err != nil {
		return services.Wrap(services.ErrTransient, StageExport, "write", s.sink.Name(), err)
	}
	s.metrics.Exported(s.sink.Name(), len(batch.Rows))
	payload.Summary = summarize(*payload, s.sink.Name())
	return nil
}

func (s exportStage) HealthCheck(context.Context) stage.Health {
	if s.sink == nil {
		return stage.Unhealthy(StageExport, "export sink not configured")
	}
	return stage.Healthy(StageExport)
}

func summarize(payload checkpoint.Payload, sink string) checkpoint.Summary {
	items := make([]checkpoint.SummaryItem, 0, len(payload.Results))
	for _, row := range payload.Results {
		items = append(items, checkpoint.SummaryItem{URL: row.URL, Transcript: row.Transcript})
	}
	return checkpoint.Summary{
		Topic:       payload.Params.Topic,
		QueryCount:  len(payload.Queries),
		ShortsCount: len(payload.Results),
		RowsWritten: len(payload.Results),
		Sink:        strings.TrimSpace(sink),
		Items:       items,
	}
}
