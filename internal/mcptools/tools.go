// Package mcptools exposes the pipeline as Model Context Protocol tools.
package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"shortscout/internal/checkpoint"
	"shortscout/internal/pipeline"
	"shortscout/internal/queries"
	"shortscout/internal/services"
	"shortscout/internal/transcript"
)

// Deps are the collaborators behind the tools.
type Deps struct {
	Controller  *pipeline.Controller
	Transcripts transcript.Provider
}

// ExpandInput is the expand_queries argument set.
type ExpandInput struct {
	Topic    string `json:"topic" jsonschema:"Topic to search shorts for"`
	Language string `json:"language,omitempty" jsonschema:"ISO 639-1 language code (accepted, does not change output)"`
}

// ExpandOutput lists the expansion and the extension it would fall back to.
type ExpandOutput struct {
	Queries  []string `json:"queries"`
	Extended []string `json:"extended"`
}

// RunInput holds run parameters; blanks take the configured defaults.
type RunInput struct {
	Topic    string `json:"topic" jsonschema:"Topic to search shorts for"`
	Language string `json:"language,omitempty" jsonschema:"Language code, default from config"`
	Region   string `json:"region,omitempty" jsonschema:"ISO 3166-1 region code, default from config"`
	Days     int    `json:"days,omitempty" jsonschema:"Only videos published within this many days"`
	Target   int    `json:"target,omitempty" jsonschema:"Number of shorts to collect (max 50)"`
}

// AdvanceInput is one checkpoint step.
type AdvanceInput struct {
	State     string `json:"state" jsonschema:"Current checkpoint: start, queries-ready, shorts-ready, transcripts-ready"`
	Payload   string `json:"payload,omitempty" jsonschema:"Payload JSON returned by the previous step; omit at start"`
	NextState string `json:"next_state,omitempty" jsonschema:"Expected next checkpoint; rejected if it does not follow state"`
	Topic     string `json:"topic,omitempty" jsonschema:"Topic, required at start"`
	Language  string `json:"language,omitempty"`
	Region    string `json:"region,omitempty"`
	Days      int    `json:"days,omitempty"`
	Target    int    `json:"target,omitempty"`
}

// AdvanceOutput carries the next checkpoint and its payload as JSON text.
type AdvanceOutput struct {
	State   string `json:"state"`
	Payload string `json:"payload"`
}

// TranscriptInput names one video.
type TranscriptInput struct {
	URL      string `json:"url" jsonschema:"YouTube watch, shorts, or youtu.be URL"`
	Language string `json:"language,omitempty" jsonschema:"Preferred caption language"`
}

// TranscriptOutput is the fetched transcript.
type TranscriptOutput struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

// NewServer builds an MCP server with every tool registered.
func NewServer(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "shortscout", Version: version}, nil)
	Register(server, deps)
	return server
}

// Register adds the shortscout tools to server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "expand_queries",
		Description: "Expand a topic into the search queries the discovery loop tries, plus the extension used once they are exhausted.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, in ExpandInput) (*mcp.CallToolResult, ExpandOutput, error) {
		expanded := queries.Expand(in.Topic, in.Language)
		if len(expanded) == 0 {
			return nil, ExpandOutput{}, toolError(services.Wrap(services.ErrValidation, "mcp", "expand_queries",
				"topic is required", nil))
		}
		return nil, ExpandOutput{Queries: expanded, Extended: queries.Extend(in.Topic, expanded, in.Language)}, nil
	})

	if deps.Controller != nil {
		controller := deps.Controller
		mcp.AddTool(server, &mcp.Tool{
			Name:        "checkpoint_advance",
			Description: "Run exactly one pipeline stage. Start with state=start and a topic, then pass back the returned state and payload until state is done.",
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in AdvanceInput) (*mcp.CallToolResult, AdvanceOutput, error) {
			out, err := controller.Advance(ctx, pipeline.Step{
				State:   checkpoint.State(strings.TrimSpace(in.State)),
				Payload: in.Payload,
				Target:  checkpoint.State(strings.TrimSpace(in.NextState)),
				Params: checkpoint.Params{
					Topic:    in.Topic,
					Language: in.Language,
					Region:   in.Region,
					Days:     in.Days,
					Target:   in.Target,
				},
			})
			if err != nil {
				return nil, AdvanceOutput{}, toolError(err)
			}
			encoded, err := out.Payload.Encode()
			if err != nil {
				return nil, AdvanceOutput{}, err
			}
			return nil, AdvanceOutput{State: out.State.String(), Payload: encoded}, nil
		})

		mcp.AddTool(server, &mcp.Tool{
			Name:        "run_pipeline",
			Description: "Discover, rank, enrich, and export shorts for a topic in one call. Returns the run summary.",
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in RunInput) (*mcp.CallToolResult, checkpoint.Summary, error) {
			summary, err := controller.RunAll(ctx, checkpoint.Params{
				Topic:    in.Topic,
				Language: in.Language,
				Region:   in.Region,
				Days:     in.Days,
				Target:   in.Target,
			})
			if err != nil {
				return nil, checkpoint.Summary{}, toolError(err)
			}
			return nil, summary, nil
		})
	}

	if deps.Transcripts != nil {
		provider := deps.Transcripts
		mcp.AddTool(server, &mcp.Tool{
			Name:        "fetch_transcript",
			Description: "Fetch the transcript of a single YouTube video. Returns an empty transcript when the video has no captions.",
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
			id := transcript.ExtractVideoID(in.URL)
			if id == "" {
				return nil, TranscriptOutput{}, toolError(services.Wrap(services.ErrValidation, "mcp", "fetch_transcript",
					"url must be a YouTube watch, shorts, or youtu.be link", nil))
			}
			text, err := provider.Fetch(ctx, id, in.Language)
			if err != nil {
				return nil, TranscriptOutput{}, toolError(err)
			}
			return nil, TranscriptOutput{VideoID: id, Transcript: text}, nil
		})
	}
}

// toolError prefixes the error kind so clients can tell caller mistakes from
// provider trouble.
func toolError(err error) error {
	return fmt.Errorf("%s error: %w", services.KindOf(err), err)
}
