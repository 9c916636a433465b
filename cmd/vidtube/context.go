package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/adapter"
	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *adapter.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*adapter.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = adapter.LoadConfig(c.configPath())
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withApp builds the App for one command and tears it down afterwards
func (c *commandContext) withApp(cmd *cobra.Command, opts app.Options, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = adapter.NullLogger(), io.NopCloser(nil)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	opts.Logger = logger
	a, err := app.New(cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Debug("running command", "command", cmd.CommandPath())
	return fn(cmd.Context(), a)
}

// requireSession fails early for commands that need a signed-in user
func requireSession(a *app.App) error {
	if a.SessionQueries.IsAuthenticated() {
		return nil
	}
	return domain.ErrUnauthenticated
}

func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "not signed in; run `vidtube login`"
	case errors.Is(err, domain.ErrServerOffline):
		return "cannot reach the server: " + err.Error()
	default:
		return err.Error()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
