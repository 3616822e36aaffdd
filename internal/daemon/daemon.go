package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/pipeline"
	"shortscout/internal/preflight"
	"shortscout/internal/server"
)

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("another shortscoutd instance is already running")

// Daemon owns the instance lock, the pipeline runtime, and the API server.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runtime *pipeline.Runtime
	server  *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	Bind         string `json:"bind"`
	Sink         string `json:"sink"`
	LockFilePath string `json:"lock_file"`
}

// New constructs a daemon around an already built runtime.
func New(cfg *config.Config, runtime *pipeline.Runtime, gatherer prometheus.Gatherer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runtime == nil || runtime.Controller == nil {
		return nil, errors.New("daemon requires config and pipeline runtime")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	srv, err := server.New(server.Options{
		Controller:   runtime.Controller,
		Gatherer:     gatherer,
		Logger:       logger,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	lockPath := cfg.ServerLockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		runtime:  runtime,
		server:   srv,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Server exposes the HTTP server, mainly for tests.
func (d *Daemon) Server() *server.Server {
	return d.server
}

// Run acquires the instance lock and serves the API on the configured bind
// address until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return d.RunListener(ctx, ln)
}

// RunListener is Run on an existing listener. The listener is closed on return.
func (d *Daemon) RunListener(ctx context.Context, ln net.Listener) error {
	if d.running.Load() {
		_ = ln.Close()
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		_ = ln.Close()
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	defer func() {
		d.running.Store(false)
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.reportPreflight(ctx)
	d.logger.Info("shortscoutd started",
		logging.String("lock", d.lockPath),
		logging.String("sink", d.sinkName()),
	)

	err = d.server.ServeListener(ctx, ln)
	d.logger.Info("shortscoutd stopped")
	return err
}

// Status reports whether the daemon is serving.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Bind:         d.cfg.Server.Bind,
		Sink:         d.sinkName(),
		LockFilePath: d.lockPath,
	}
}

// Close releases the runtime's sink.
func (d *Daemon) Close() error {
	return d.runtime.Close()
}

func (d *Daemon) reportPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg, d.logger)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run shortscout doctor for details"),
			logging.String(logging.FieldImpact, "requests depending on this check will fail"),
		)
	}
}

func (d *Daemon) sinkName() string {
	if d.runtime.Sink == nil {
		return config.SinkNone
	}
	return d.runtime.Sink.Name()
}
