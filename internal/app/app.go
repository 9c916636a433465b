// Package app assembles the client: one store, one HTTP client and every
// domain slice, wired together. UI layers talk to the slices only.
package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmcdole/vidtube/internal/adapter"
	"github.com/mmcdole/vidtube/internal/api"
	"github.com/mmcdole/vidtube/internal/comment"
	"github.com/mmcdole/vidtube/internal/like"
	"github.com/mmcdole/vidtube/internal/metrics"
	"github.com/mmcdole/vidtube/internal/playlist"
	"github.com/mmcdole/vidtube/internal/post"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/search"
	"github.com/mmcdole/vidtube/internal/session"
	"github.com/mmcdole/vidtube/internal/store"
	"github.com/mmcdole/vidtube/internal/subscription"
	"github.com/mmcdole/vidtube/internal/video"
)

// Options tune New
type Options struct {
	Logger *slog.Logger

	// Registerer receives the metrics collector. Nil disables metrics.
	Registerer prometheus.Registerer

	// Store replaces the persisted store, mostly for tests
	Store *store.Store
}

// App is the explicit container for all client state
type App struct {
	Config  *adapter.Config
	Store   *store.Store
	Metrics *metrics.Collector

	Session        *session.Commands
	SessionQueries *session.Queries

	Videos       *video.Commands
	VideoQueries *video.Queries

	Comments       *comment.Commands
	CommentQueries *comment.Queries

	Posts       *post.Commands
	PostQueries *post.Queries

	Likes       *like.Commands
	LikeQueries *like.Queries

	Playlists       *playlist.Commands
	PlaylistQueries *playlist.Queries

	Subscriptions       *subscription.Commands
	SubscriptionQueries *subscription.Queries

	Search   *search.Service
	Launcher *adapter.Launcher

	client *api.Client
	logger *slog.Logger
}

// New builds the App and restores any persisted session before returning,
// so no fetch can run without it.
func New(cfg *adapter.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := opts.Store
	if st == nil {
		var err error
		st, err = store.Open(cfg.Cache.Dir, cfg.API.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	client := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Retries:   cfg.API.Retries,
		RateLimit: cfg.API.RateLimit,
		UserAgent: cfg.API.UserAgent,
	}, logger.With("component", "api"))

	a := &App{
		Config:   cfg,
		Store:    st,
		client:   client,
		logger:   logger,
		Search:   search.NewService(st, logger.With("component", "search")),
		Launcher: adapter.NewLauncher(cfg.Player, logger.With("component", "player")),
	}

	var ropts []request.Option
	if opts.Registerer != nil {
		a.Metrics = metrics.NewCollector(opts.Registerer)
		ropts = append(ropts, request.WithRecorder(a.Metrics))
		client.SetRecorder(a.Metrics)
	}

	a.Session, a.SessionQueries = session.New(client, st, logger.With("slice", "session"), ropts...)
	a.Videos, a.VideoQueries = video.New(client, st, logger.With("slice", "videos"), cfg.Paging.VideosLimit, ropts...)
	a.Comments, a.CommentQueries = comment.New(client, st, logger.With("slice", "comments"), cfg.Paging.CommentsLimit, ropts...)
	a.Posts, a.PostQueries = post.New(client, st, logger.With("slice", "posts"), ropts...)
	a.Likes, a.LikeQueries = like.New(client, st, logger.With("slice", "likes"), ropts...)
	a.Playlists, a.PlaylistQueries = playlist.New(client, st, logger.With("slice", "playlists"), ropts...)
	a.Subscriptions, a.SubscriptionQueries = subscription.New(client, st, logger.With("slice", "subscriptions"),
		a.SessionQueries.UserID, ropts...)

	// A 401 that survives a refresh attempt expires the session
	client.SetAuth(a.SessionQueries, a.Session, a.Session.Expire)

	if !a.Session.Restore() {
		logger.Debug("no persisted session", "base_url", cfg.API.BaseURL)
	}
	return a, nil
}

// Changes subscribes to settlement notifications from every slice
func (a *App) Changes(buffer int) (<-chan store.Change, func()) {
	return a.Store.Subscribe(buffer)
}

// Close aborts in-flight operations and releases the store
func (a *App) Close() error {
	a.Session.CancelAll()
	a.Videos.CancelAll()
	a.Comments.CancelAll()
	a.Posts.CancelAll()
	a.Likes.CancelAll()
	a.Playlists.CancelAll()
	a.Subscriptions.CancelAll()

	if err := a.Store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
		return err
	}
	return nil
}
