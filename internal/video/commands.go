// Package video holds the video catalogue: the accumulated listing for the
// current filter and the selected video.
package video

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// DefaultLimit is the listing page size when none is configured
const DefaultLimit = 20

// Operation names
const (
	OpFetch   = "videos.fetch"
	OpGet     = "videos.get"
	OpUpdate  = "videos.update"
	OpDelete  = "videos.delete"
	OpPublish = "videos.publish"
)

type view struct {
	mu       sync.RWMutex
	query    domain.ListQuery
	ids      []string
	cursor   paging.Cursor
	selected string
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.VideoRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	limit   int
	logger  *slog.Logger
}

// New creates the video slice. A limit of 0 uses DefaultLimit.
func New(repo domain.VideoRepository, st *store.Store, logger *slog.Logger, limit int, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := &view{cursor: paging.New(limit)}
	t := request.NewTracker(append([]request.Option{st.SettleHook("videos")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, limit: limit, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

// FetchVideos loads one page of the listing. The first page, or any page
// of a different filter, replaces the listing; the next page of the same
// filter appends. Only the most recently issued fetch is applied.
func (c *Commands) FetchVideos(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Video], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = c.limit
	}
	q.Query = strings.TrimSpace(q.Query)

	p, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) (domain.Page[domain.Video], error) {
			return c.repo.ListVideos(ctx, q)
		},
		func(p domain.Page[domain.Video]) {
			c.applyPage(q, p)
		},
	)
	if err != nil {
		if errors.Is(err, request.ErrStale) {
			c.logger.Debug("dropped superseded videos page", "query", q.Query, "page", q.Page)
		} else {
			c.logger.Error("failed to fetch videos", "error", err, "query", q.Query, "page", q.Page)
		}
		return p, err
	}
	c.logger.Debug("fetched videos", "query", q.Query, "page", p.Page, "count", len(p.Docs))
	return p, nil
}

// LoadMore fetches the next page of the current filter
func (c *Commands) LoadMore(ctx context.Context) (domain.Page[domain.Video], error) {
	c.view.mu.RLock()
	q := c.view.query
	cur := c.view.cursor
	c.view.mu.RUnlock()

	if !cur.Loaded() || !cur.HasMore() || c.tracker.Pending(request.Op(OpFetch)) {
		return domain.Page[domain.Video]{}, nil
	}
	q.Page = cur.Next()
	return c.FetchVideos(ctx, q)
}

func (c *Commands) applyPage(q domain.ListQuery, p domain.Page[domain.Video]) {
	c.view.mu.Lock()
	defer c.view.mu.Unlock()

	ids := make([]string, 0, len(p.Docs))
	for _, v := range p.Docs {
		ids = append(ids, v.ID)
	}

	if p.Page <= 1 || !c.view.query.SameFilter(q) || !c.view.cursor.Loaded() {
		c.view.query = q
		c.view.ids = paging.Unique(ids)
		c.view.cursor = paging.New(q.Limit)
		c.view.cursor.Page = max(p.Page, 1)
		c.view.cursor.TotalPages = p.TotalPages
		c.view.cursor.TotalDocs = p.TotalDocs
	} else {
		if c.view.cursor.Advance(p.Page, p.TotalPages, p.TotalDocs) != paging.Append {
			c.logger.Debug("ignored out-of-order videos page", "page", p.Page, "have", c.view.cursor.Page)
			return
		}
		c.view.ids = paging.AppendUnique(c.view.ids, ids...)
	}
	c.store.Videos.Upsert(p.Docs...)
}

// FetchVideo loads one video and selects it
func (c *Commands) FetchVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	v, err := request.Run(ctx, c.tracker, request.Op(OpGet), request.Latest,
		func(ctx context.Context) (*domain.Video, error) {
			return c.repo.GetVideo(ctx, videoID)
		},
		func(v *domain.Video) {
			c.store.Videos.Upsert(*v)
			c.view.mu.Lock()
			c.view.selected = v.ID
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		if !errors.Is(err, request.ErrStale) {
			c.logger.Error("failed to fetch video", "error", err, "id", videoID)
		}
		return nil, err
	}
	c.logger.Debug("fetched video", "id", videoID)
	return v, nil
}

// UpdateVideo edits title and description in place
func (c *Commands) UpdateVideo(ctx context.Context, videoID string, in domain.VideoUpdate) (*domain.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	v, err := request.Run(ctx, c.tracker, request.Scoped(OpUpdate, videoID), request.Each,
		func(ctx context.Context) (*domain.Video, error) {
			if in.Title == "" && in.Description == "" {
				return nil, domain.NewValidationError("nothing to update")
			}
			return c.repo.UpdateVideo(ctx, videoID, in)
		},
		func(v *domain.Video) {
			c.store.Videos.Patch(videoID, func(existing *domain.Video) {
				existing.Title = v.Title
				existing.Description = v.Description
				if v.ThumbnailURL != "" {
					existing.ThumbnailURL = v.ThumbnailURL
				}
			})
		},
	)
	if err != nil {
		c.logger.Error("failed to update video", "error", err, "id", videoID)
		return nil, err
	}
	if cached, ok := c.store.Videos.Get(videoID); ok {
		v = &cached
	}
	c.logger.Info("updated video", "id", videoID)
	return v, nil
}

// DeleteVideo removes a video from the listing, the selection and the table
func (c *Commands) DeleteVideo(ctx context.Context, videoID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpDelete, videoID), request.Each,
		func(ctx context.Context) error {
			return c.repo.DeleteVideo(ctx, videoID)
		},
		func() {
			c.store.Videos.Delete(videoID)

			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			if slices.Contains(c.view.ids, videoID) {
				c.view.ids = paging.Remove(c.view.ids, videoID)
				if c.view.cursor.TotalDocs > 0 {
					c.view.cursor.TotalDocs--
				}
			}
			if c.view.selected == videoID {
				c.view.selected = ""
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to delete video", "error", err, "id", videoID)
		return err
	}
	c.logger.Info("deleted video", "id", videoID)
	return nil
}

// TogglePublish flips publication. The cached video adopts the server's
// answer.
func (c *Commands) TogglePublish(ctx context.Context, videoID string) (bool, error) {
	published, err := request.Run(ctx, c.tracker, request.Scoped(OpPublish, videoID), request.Each,
		func(ctx context.Context) (bool, error) {
			return c.repo.TogglePublish(ctx, videoID)
		},
		func(published bool) {
			c.store.Videos.Patch(videoID, func(v *domain.Video) {
				v.IsPublished = published
			})
		},
	)
	if err != nil {
		c.logger.Error("failed to toggle publish", "error", err, "id", videoID)
		return false, err
	}
	c.logger.Info("toggled publish", "id", videoID, "published", published)
	return published, nil
}

// Select points the selection at a cached video without fetching
func (c *Commands) Select(videoID string) bool {
	if !c.store.Videos.Has(videoID) {
		return false
	}
	c.view.mu.Lock()
	c.view.selected = videoID
	c.view.mu.Unlock()
	return true
}

// Cancel aborts an in-flight listing fetch
func (c *Commands) Cancel() {
	c.tracker.Cancel(request.Op(OpFetch))
}

func (c *Commands) clear() {
	c.view.mu.Lock()
	c.view.query = domain.ListQuery{}
	c.view.ids = nil
	c.view.cursor = paging.New(c.limit)
	c.view.selected = ""
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
