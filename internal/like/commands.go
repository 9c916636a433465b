// Package like toggles likes on videos, comments and posts and keeps the
// viewer's liked-videos list.
//
// A toggle patches the one cached copy of its target in the store, so every
// list that shows the entity sees the new flag and count.
package like

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Operation names
const (
	OpToggle = "likes.toggle"
	OpFetch  = "likes.fetch"
	OpRemove = "likes.remove"
)

type view struct {
	mu     sync.RWMutex
	ids    []string
	loaded bool
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.LikeRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	logger  *slog.Logger
}

// New creates the like slice
func New(repo domain.LikeRepository, st *store.Store, logger *slog.Logger, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &view{}
	t := request.NewTracker(append([]request.Option{st.SettleHook("likes")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

func (c *Commands) ToggleVideoLike(ctx context.Context, videoID string) (domain.LikeState, error) {
	return c.toggle(ctx, domain.LikeVideo, videoID)
}

func (c *Commands) ToggleCommentLike(ctx context.Context, commentID string) (domain.LikeState, error) {
	return c.toggle(ctx, domain.LikeComment, commentID)
}

func (c *Commands) TogglePostLike(ctx context.Context, postID string) (domain.LikeState, error) {
	return c.toggle(ctx, domain.LikePost, postID)
}

func (c *Commands) toggle(ctx context.Context, kind domain.LikeKind, targetID string) (domain.LikeState, error) {
	st, err := request.Run(ctx, c.tracker, toggleKey(kind, targetID), request.Each,
		func(ctx context.Context) (domain.LikeState, error) {
			st, err := c.repo.ToggleLike(ctx, kind, targetID)
			st.Kind, st.TargetID = kind, targetID
			return st, err
		},
		c.apply,
	)
	if err != nil {
		c.logger.Error("failed to toggle like", "error", err, "kind", kind.String(), "id", targetID)
		return domain.LikeState{}, err
	}
	c.logger.Info("toggled like", "kind", kind.String(), "id", targetID, "liked", st.Liked)
	return st, nil
}

func toggleKey(kind domain.LikeKind, targetID string) request.Key {
	return request.Scoped(OpToggle, kind.String()+":"+targetID)
}

// apply patches the target with the server's answer. Targets that are not
// cached are left alone.
func (c *Commands) apply(st domain.LikeState) {
	switch st.Kind {
	case domain.LikeVideo:
		c.store.Videos.Patch(st.TargetID, func(v *domain.Video) {
			adopt(&v.IsLiked, &v.LikesCount, st)
		})
		c.view.mu.Lock()
		if !st.Liked {
			c.view.ids = paging.Remove(c.view.ids, st.TargetID)
		} else if c.view.loaded && c.store.Videos.Has(st.TargetID) {
			c.view.ids = paging.Prepend(c.view.ids, st.TargetID)
		}
		c.view.mu.Unlock()
	case domain.LikeComment:
		c.store.Comments.Patch(st.TargetID, func(cm *domain.Comment) {
			adopt(&cm.IsLiked, &cm.LikesCount, st)
		})
	case domain.LikePost:
		c.store.Posts.Patch(st.TargetID, func(p *domain.Post) {
			adopt(&p.IsLiked, &p.LikesCount, st)
		})
	}
}

// adopt sets the flag from the server. The count is the server's when it
// sent one, otherwise it moves by one if the flag changed.
func adopt(liked *bool, count *int, st domain.LikeState) {
	switch {
	case st.CountKnown:
		*count = st.LikesCount
	case *liked != st.Liked && st.Liked:
		*count++
	case *liked != st.Liked && *count > 0:
		*count--
	}
	*liked = st.Liked
}

// FetchLikedVideos replaces the liked-videos list
func (c *Commands) FetchLikedVideos(ctx context.Context) ([]domain.Video, error) {
	videos, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) ([]domain.Video, error) {
			return c.repo.LikedVideos(ctx)
		},
		func(videos []domain.Video) {
			ids := make([]string, 0, len(videos))
			for i := range videos {
				videos[i].IsLiked = true
				ids = append(ids, videos[i].ID)
			}
			c.store.Videos.Upsert(videos...)

			c.view.mu.Lock()
			c.view.ids = paging.Unique(ids)
			c.view.loaded = true
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch liked videos", "error", err)
		return nil, err
	}
	c.logger.Debug("fetched liked videos", "count", len(videos))
	return videos, nil
}

// RemoveLikedVideo unlikes a video and drops it from the liked list. If the
// server reports the video was not liked, the like is toggled back off.
func (c *Commands) RemoveLikedVideo(ctx context.Context, videoID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpRemove, videoID), request.Each,
		func(ctx context.Context) error {
			st, err := c.repo.ToggleLike(ctx, domain.LikeVideo, videoID)
			if err != nil {
				return err
			}
			if st.Liked {
				_, err = c.repo.ToggleLike(ctx, domain.LikeVideo, videoID)
			}
			return err
		},
		func() {
			c.apply(domain.LikeState{Kind: domain.LikeVideo, TargetID: videoID, Liked: false})
		},
	)
	if err != nil {
		c.logger.Error("failed to remove liked video", "error", err, "id", videoID)
		return err
	}
	c.logger.Info("removed liked video", "id", videoID)
	return nil
}

func (c *Commands) clear() {
	c.view.mu.Lock()
	c.view.ids = nil
	c.view.loaded = false
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
