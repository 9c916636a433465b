// Package comment holds the paginated comment list of the video being
// watched.
package comment

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

// DefaultLimit is the page size when none is configured
const DefaultLimit = 10

// Operation names
const (
	OpFetch  = "comments.fetch"
	OpAdd    = "comments.add"
	OpUpdate = "comments.update"
	OpDelete = "comments.delete"
)

// view is the comment list of one video. Guarded by mu; the comments
// themselves live in the store's Comments table.
type view struct {
	mu      sync.RWMutex
	videoID string
	ids     []string
	cursor  paging.Cursor
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.CommentRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	logger  *slog.Logger
}

// New creates the comment slice. A limit of 0 uses DefaultLimit.
func New(repo domain.CommentRepository, st *store.Store, logger *slog.Logger, limit int, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := &view{cursor: paging.New(limit)}
	t := request.NewTracker(append([]request.Option{st.SettleHook("comments")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

// FetchComments loads one page of a video's comments. Page 1 replaces the
// list, the page after the last accepted one appends, anything else is
// dropped. Fetching a different video starts a fresh list.
func (c *Commands) FetchComments(ctx context.Context, videoID string, page int) (domain.Page[domain.Comment], error) {
	if page < 1 {
		page = 1
	}

	c.view.mu.Lock()
	if c.view.videoID != videoID {
		c.switchLocked(videoID)
	}
	epoch := c.view.cursor.Epoch()
	limit := c.view.cursor.Limit
	c.view.mu.Unlock()

	p, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) (domain.Page[domain.Comment], error) {
			return c.repo.ListComments(ctx, videoID, page, limit)
		},
		func(p domain.Page[domain.Comment]) {
			c.applyPage(videoID, epoch, p)
		},
	)
	if err != nil {
		if errors.Is(err, request.ErrStale) {
			c.logger.Debug("dropped superseded comments page", "videoID", videoID, "page", page)
		} else {
			c.logger.Error("failed to fetch comments", "error", err, "videoID", videoID, "page", page)
		}
		return p, err
	}
	c.logger.Debug("fetched comments", "videoID", videoID, "page", p.Page, "count", len(p.Docs))
	return p, nil
}

// LoadMore fetches the page after the last accepted one. It does nothing
// when the list is complete or a fetch is already in flight.
func (c *Commands) LoadMore(ctx context.Context) (domain.Page[domain.Comment], error) {
	c.view.mu.RLock()
	videoID := c.view.videoID
	cur := c.view.cursor
	c.view.mu.RUnlock()

	if videoID == "" || !cur.HasMore() || c.tracker.Pending(request.Op(OpFetch)) {
		return domain.Page[domain.Comment]{}, nil
	}
	return c.FetchComments(ctx, videoID, cur.Next())
}

// AddComment posts a comment. The new comment goes to the top of the list
// if its video is the one being shown.
func (c *Commands) AddComment(ctx context.Context, videoID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	cm, err := request.Run(ctx, c.tracker, request.Scoped(OpAdd, videoID), request.Each,
		func(ctx context.Context) (*domain.Comment, error) {
			if content == "" {
				return nil, domain.NewValidationError("comment cannot be empty")
			}
			return c.repo.AddComment(ctx, videoID, content)
		},
		func(cm *domain.Comment) {
			c.store.Comments.Upsert(*cm)

			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			if c.view.videoID == cm.VideoID && !slices.Contains(c.view.ids, cm.ID) {
				c.view.ids = paging.Prepend(c.view.ids, cm.ID)
				c.view.cursor.TotalDocs++
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to add comment", "error", err, "videoID", videoID)
		return nil, err
	}
	c.logger.Info("added comment", "videoID", videoID, "id", cm.ID)
	return cm, nil
}

// UpdateComment edits a comment's content in place
func (c *Commands) UpdateComment(ctx context.Context, commentID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	cm, err := request.Run(ctx, c.tracker, request.Scoped(OpUpdate, commentID), request.Each,
		func(ctx context.Context) (*domain.Comment, error) {
			if content == "" {
				return nil, domain.NewValidationError("comment cannot be empty")
			}
			return c.repo.UpdateComment(ctx, commentID, content)
		},
		func(cm *domain.Comment) {
			// The update response does not carry like state
			c.store.Comments.Patch(commentID, func(existing *domain.Comment) {
				existing.Content = cm.Content
			})
		},
	)
	if err != nil {
		c.logger.Error("failed to update comment", "error", err, "id", commentID)
		return nil, err
	}
	if cached, ok := c.store.Comments.Get(commentID); ok {
		cm = &cached
	}
	c.logger.Info("updated comment", "id", commentID)
	return cm, nil
}

// DeleteComment removes a comment. Deleting an id that is not listed only
// drops it from the table.
func (c *Commands) DeleteComment(ctx context.Context, commentID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpDelete, commentID), request.Each,
		func(ctx context.Context) error {
			return c.repo.DeleteComment(ctx, commentID)
		},
		func() {
			c.store.Comments.Delete(commentID)

			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			if slices.Contains(c.view.ids, commentID) {
				c.view.ids = paging.Remove(c.view.ids, commentID)
				if c.view.cursor.TotalDocs > 0 {
					c.view.cursor.TotalDocs--
				}
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to delete comment", "error", err, "id", commentID)
		return err
	}
	c.logger.Info("deleted comment", "id", commentID)
	return nil
}

// ResetComments empties the list and discards every in-flight settlement
func (c *Commands) ResetComments() {
	c.view.mu.Lock()
	ids := c.view.ids
	c.switchLocked("")
	c.view.mu.Unlock()

	c.store.Comments.Delete(ids...)
	c.tracker.ResetAll()
	c.logger.Debug("reset comments", "count", len(ids))
}

// Cancel aborts an in-flight fetch
func (c *Commands) Cancel() {
	c.tracker.Cancel(request.Op(OpFetch))
}

// clear runs when the whole store is reset; the table is already empty
func (c *Commands) clear() {
	c.view.mu.Lock()
	c.switchLocked("")
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

func (c *Commands) switchLocked(videoID string) {
	c.view.videoID = videoID
	c.view.ids = nil
	c.view.cursor.Reset()
}

// applyPage runs under the tracker lock. Pages captured before a reset or
// video switch carry an old epoch and are ignored.
func (c *Commands) applyPage(videoID string, epoch uint64, p domain.Page[domain.Comment]) {
	c.view.mu.Lock()
	defer c.view.mu.Unlock()

	if c.view.videoID != videoID || c.view.cursor.Epoch() != epoch {
		return
	}

	ids := make([]string, 0, len(p.Docs))
	for _, cm := range p.Docs {
		ids = append(ids, cm.ID)
	}

	switch c.view.cursor.Advance(p.Page, p.TotalPages, p.TotalDocs) {
	case paging.Replace:
		c.view.ids = paging.Unique(ids)
	case paging.Append:
		c.view.ids = paging.AppendUnique(c.view.ids, ids...)
	default:
		c.logger.Debug("ignored out-of-order comments page", "videoID", videoID, "page", p.Page, "have", c.view.cursor.Page)
		return
	}
	c.store.Comments.Upsert(p.Docs...)
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
