package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"shortscout/internal/logging"
	"shortscout/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusForError maps error kinds onto HTTP status codes.
func statusForError(err error) int {
	if errors.Is(err, context.Canceled) {
		return 499
	}
	switch services.KindOf(err) {
	case services.KindInput:
		return http.StatusBadRequest
	case services.KindConfiguration:
		return http.StatusServiceUnavailable
	case services.KindTransient:
		if errors.Is(err, services.ErrTimeout) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	kind := services.KindOf(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.UserContext(), s.logger), "request failed", "request_failed",
			logging.String("path", c.Path()),
			logging.String("error_kind", string(kind)),
			logging.Error(err),
		)
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error(), Kind: string(kind)})
}

// handleFiberError renders routing and framework errors in the API's shape.
func (s *Server) handleFiberError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message, Kind: string(services.KindInput)})
	}
	return s.writeError(c, err)
}
