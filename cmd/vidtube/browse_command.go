package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/metrics"
	"github.com/mmcdole/vidtube/internal/tui"
)

// changeBuffer sizes the UI's change feed; the store drops notifications
// for a full subscriber
const changeBuffer = 64

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var opts app.Options
			var reg *prometheus.Registry
			if cfg.Metrics.Addr != "" {
				reg = prometheus.NewRegistry()
				opts.Registerer = reg
			}

			return ctx.withApp(cmd, opts, func(c context.Context, a *app.App) error {
				logger := slog.Default()

				if reg != nil {
					srv := &http.Server{
						Addr:              cfg.Metrics.Addr,
						Handler:           metrics.SetupMetricsRoute(reg),
						ReadHeaderTimeout: 5 * time.Second,
					}
					go func() {
						logger.Info("serving metrics", "addr", srv.Addr)
						if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							logger.Error("metrics server failed", "error", err)
						}
					}()
					defer func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
						defer cancel()
						srv.Shutdown(shutdownCtx)
					}()
				}

				changes, unsubscribe := a.Changes(changeBuffer)
				defer unsubscribe()

				p := tea.NewProgram(
					tui.NewModel(a, changes),
					tea.WithAltScreen(),
					tea.WithContext(c),
				)

				logger.Info("starting TUI")
				if _, err := p.Run(); err != nil {
					logger.Error("TUI error", "error", err)
					return fmt.Errorf("TUI error: %w", err)
				}
				logger.Info("shutting down")
				return nil
			})
		},
	}
}
