package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shortscout/internal/logging"
	"shortscout/internal/pipeline"
	"shortscout/internal/services"
)

const requestIDHeader = "X-Request-ID"

// Options configures the HTTP server.
type Options struct {
	Controller   *pipeline.Controller
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the shortscoutd HTTP surface.
type Server struct {
	app        *fiber.App
	controller *pipeline.Controller
	logger     *slog.Logger
}

// New builds the fiber app and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("server: controller is required")
	}
	s := &Server{
		controller: opts.Controller,
		logger:     logging.NewComponentLogger(opts.Logger, "server"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "shortscoutd",
		DisableStartupMessage: true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          s.handleFiberError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestContext)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/defaults", s.handleDefaults)
	api.Post("/queries/expand", s.handleExpand)
	api.Post("/checkpoint", s.handleCheckpoint)
	api.Post("/run", s.handleRun)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on bind until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, bind string) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
				s.logger.Warn("api shutdown incomplete", logging.Error(err))
			}
		case <-done:
		}
	}()
	defer close(done)

	s.logger.Info("api server listening",
		logging.String("address", ln.Addr().String()),
		logging.String(logging.FieldEventType, "server_listening"),
	)
	return s.app.Listener(ln)
}

// requestContext stamps a request id onto the user context and logs the
// request once it completes.
func (s *Server) requestContext(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)
	c.SetUserContext(services.WithRequestID(c.UserContext(), id))

	started := time.Now()
	err := c.Next()
	if err != nil {
		if handlerErr := s.handleFiberError(c, err); handlerErr != nil {
			return handlerErr
		}
	}

	status := c.Response().StatusCode()
	logger := logging.WithContext(c.UserContext(), s.logger)
	attrs := logging.Args(
		logging.String("method", c.Method()),
		logging.String("path", c.Path()),
		logging.Int("status", status),
		logging.Duration("elapsed", time.Since(started)),
	)
	switch {
	case status >= 500:
		logger.Error("request", attrs...)
	case status >= 400:
		logger.Warn("request", attrs...)
	default:
		logger.Debug("request", attrs...)
	}
	return nil
}
