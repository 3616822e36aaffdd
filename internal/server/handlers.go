package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"shortscout/internal/checkpoint"
	"shortscout/internal/pipeline"
	"shortscout/internal/queries"
	"shortscout/internal/services"
	"shortscout/internal/stage"
)

type healthResponse struct {
	Ready  bool           `json:"ready"`
	Stages []stage.Health `json:"stages"`
}

type expandRequest struct {
	Topic    string `json:"topic"`
	Language string `json:"language"`
}

type expandResponse struct {
	Queries  []string `json:"queries"`
	Extended []string `json:"extended"`
}

// checkpointRequest carries the payload either as the JSON object returned
// by the previous call or as that object encoded into a string.
type checkpointRequest struct {
	State   string            `json:"state"`
	Target  string            `json:"target,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	Params  checkpoint.Params `json:"params"`
}

type runRequest struct {
	Params checkpoint.Params `json:"params"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	records := s.controller.Health(c.UserContext())
	resp := healthResponse{Ready: stage.AllReady(records), Stages: records}
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func (s *Server) handleDefaults(c *fiber.Ctx) error {
	return c.JSON(s.controller.Defaults())
}

func (s *Server) handleExpand(c *fiber.Ctx) error {
	var req expandRequest
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, invalidBody(err))
	}
	expanded := queries.Expand(req.Topic, req.Language)
	if len(expanded) == 0 {
		return s.writeError(c, services.Wrap(services.ErrValidation, "server", "expand", "Please provide a topic", nil))
	}
	return c.JSON(expandResponse{
		Queries:  expanded,
		Extended: queries.Extend(req.Topic, expanded, req.Language),
	})
}

func (s *Server) handleCheckpoint(c *fiber.Ctx) error {
	var req checkpointRequest
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, invalidBody(err))
	}
	raw, err := rawPayload(req.Payload)
	if err != nil {
		return s.writeError(c, err)
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		state = string(checkpoint.StateStart)
	}

	out, err := s.controller.Advance(c.UserContext(), pipeline.Step{
		State:   checkpoint.State(state),
		Payload: raw,
		Params:  req.Params,
		Target:  checkpoint.State(strings.TrimSpace(req.Target)),
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(out)
}

func (s *Server) handleRun(c *fiber.Ctx) error {
	var req runRequest
	if err := c.BodyParser(&req); err != nil {
		return s.writeError(c, invalidBody(err))
	}
	summary, err := s.controller.RunAll(c.UserContext(), req.Params)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(summary)
}

func rawPayload(msg json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal(msg, &encoded); err != nil {
			return "", invalidBody(err)
		}
		return encoded, nil
	}
	return trimmed, nil
}

func invalidBody(err error) error {
	return services.Wrap(services.ErrValidation, "server", "decode request", "body must be JSON", err)
}
