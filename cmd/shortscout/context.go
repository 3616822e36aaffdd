package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/metrics"
	"shortscout/internal/pipeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	runtime *pipeline.Runtime
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// loggerFor returns the shared CLI logger, falling back to stderr-only output
// when the config cannot provide one.
func (c *commandContext) loggerFor() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger, _ = logging.NewFromConfig(nil)
		}
		c.logger = logger
	})
	return c.logger
}

// pipelineRuntime builds the controller and its providers on first use.
func (c *commandContext) pipelineRuntime(ctx context.Context) (*pipeline.Runtime, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	runtime, err := pipeline.Build(ctx, cfg, c.loggerFor(), metrics.New(nil))
	if err != nil {
		return nil, err
	}
	c.runtime = runtime
	return runtime, nil
}

func (c *commandContext) close() error {
	if c.runtime == nil {
		return nil
	}
	err := c.runtime.Close()
	c.runtime = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
