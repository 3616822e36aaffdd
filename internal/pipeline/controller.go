package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shortscout/internal/checkpoint"
	"shortscout/internal/discovery"
	"shortscout/internal/enrichment"
	"shortscout/internal/export"
	"shortscout/internal/logging"
	"shortscout/internal/metrics"
	"shortscout/internal/services"
	"shortscout/internal/stage"
)

// Step is one checkpoint request.
type Step struct {
	// State is the checkpoint the caller is at.
	State checkpoint.State
	// Payload is the JSON returned by the previous step. Ignored at start.
	Payload string
	// Params start a run. Only read at start.
	Params checkpoint.Params
	// Target, when set, must be the state that follows State.
	Target checkpoint.State
}

// Outcome is the result of one Advance call.
type Outcome struct {
	State   checkpoint.State   `json:"state"`
	Payload checkpoint.Payload `json:"payload"`
}

// Dependencies are the collaborators the stages need.
type Dependencies struct {
	Searcher  discovery.Searcher
	Discovery discovery.Options
	Enricher  *enrichment.Enricher
	Sink      export.Sink
	Defaults  checkpoint.Params
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	// Now overrides the clock used for the published-after window.
	Now func() time.Time
}

// Controller runs checkpoint stages.
type Controller struct {
	handlers map[checkpoint.State]stage.Handler
	defaults checkpoint.Params
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewController wires the four stages.
func NewController(deps Dependencies) (*Controller, error) {
	if deps.Searcher == nil {
		return nil, errors.New("pipeline: searcher is required")
	}
	if deps.Enricher == nil {
		return nil, errors.New("pipeline: enricher is required")
	}
	if deps.Sink == nil {
		deps.Sink = export.None{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := logging.NewComponentLogger(deps.Logger, "pipeline")
	loop := discovery.NewLoop(deps.Searcher, deps.Discovery, deps.Logger, deps.Metrics)

	return &Controller{
		handlers: map[checkpoint.State]stage.Handler{
			checkpoint.StateStart:            queriesStage{},
			checkpoint.StateQueriesReady:     discoveryStage{loop: loop, searcher: deps.Searcher},
			checkpoint.StateShortsReady:      enrichmentStage{enricher: deps.Enricher},
			checkpoint.StateTranscriptsReady: exportStage{sink: deps.Sink, metrics: deps.Metrics},
		},
		defaults: deps.Defaults,
		logger:   logger,
		metrics:  deps.Metrics,
		now:      now,
	}, nil
}

// Defaults returns the parameters applied to blank request fields.
func (c *Controller) Defaults() checkpoint.Params {
	return c.defaults
}

// Advance runs the stage for step.State and returns the next state with the
// updated payload. Errors leave nothing behind since no state is stored.
func (c *Controller) Advance(ctx context.Context, step Step) (Outcome, error) {
	state, ok := checkpoint.ParseState(string(step.State))
	if !ok {
		return Outcome{}, services.Wrap(services.ErrValidation, "pipeline", "advance",
			fmt.Sprintf("unknown state %q", step.State), nil)
	}
	if state.Terminal() {
		return Outcome{}, services.Wrap(services.ErrValidation, "pipeline", "advance",
			"run already complete; start a new run", nil)
	}
	next, _ := state.Next()
	if step.Target != "" {
		target, ok := checkpoint.ParseState(string(step.Target))
		if !ok || target != next {
			return Outcome{}, services.Wrap(services.ErrValidation, "pipeline", "advance",
				fmt.Sprintf("target %q does not follow %q (expected %q)", step.Target, state, next), nil)
		}
	}

	var payload checkpoint.Payload
	if state == checkpoint.StateStart {
		params, err := resolveParams(step.Params, c.defaults, c.now())
		if err != nil {
			return Outcome{}, err
		}
		payload.Params = params
	} else {
		parsed, err := stage.ParsePayload(step.Payload)
		if err != nil {
			return Outcome{}, err
		}
		if parsed.Params.Topic == "" {
			return Outcome{}, services.Wrap(services.ErrValidation, "pipeline", "advance",
				"payload has no params; resend the payload returned by the previous step", nil)
		}
		if err := checkParams(parsed.Params); err != nil {
			return Outcome{}, err
		}
		payload = parsed
	}

	if err := c.run(ctx, state, &payload); err != nil {
		return Outcome{}, err
	}
	return Outcome{State: next, Payload: payload}, nil
}

// RunAll executes every stage in order without intermediate payloads and
// returns the run summary.
func (c *Controller) RunAll(ctx context.Context, params checkpoint.Params) (checkpoint.Summary, error) {
	resolved, err := resolveParams(params, c.defaults, c.now())
	if err != nil {
		return checkpoint.Summary{}, err
	}
	payload := checkpoint.Payload{Params: resolved}
	for state := checkpoint.StateStart; !state.Terminal(); state, _ = state.Next() {
		if err := c.run(ctx, state, &payload); err != nil {
			return checkpoint.Summary{}, err
		}
	}
	return payload.Summary, nil
}

// Health reports every stage's readiness.
func (c *Controller) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(c.handlers))
	for _, state := range checkpoint.AllStates() {
		if h, ok := c.handlers[state]; ok {
			out = append(out, h.HealthCheck(ctx))
		}
	}
	return out
}

func (c *Controller) run(ctx context.Context, state checkpoint.State, payload *checkpoint.Payload) error {
	handler, ok := c.handlers[state]
	if !ok {
		return fmt.Errorf("no stage registered for state %s", state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stageCtx := logging.WithStage(ctx, handler.Name())
	if payload.RunID != "" {
		stageCtx = services.WithRunID(stageCtx, payload.RunID)
	}
	stageLogger := logging.WithContext(stageCtx, c.logger)
	started := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("state", state.String()),
		logging.String("topic", payload.Params.Topic),
	)

	err := handler.Execute(stageCtx, payload)
	elapsed := time.Since(started)
	c.metrics.ObserveStage(handler.Name(), elapsed, err)
	if err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("state", state.String()),
			logging.String("error_kind", string(services.KindOf(err))),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return err
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("queries", len(payload.Queries)),
		logging.Int("results", len(payload.Results)),
		logging.Duration("elapsed", elapsed),
	}
	if _, ok := services.RunIDFromContext(stageCtx); !ok {
		attrs = append(attrs, logging.String(logging.FieldRunID, payload.RunID))
	}
	stageLogger.Info("stage completed", logging.Args(attrs...)...)
	return nil
}
