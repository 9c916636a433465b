// Package post holds channel posts: the community feed or one user's posts.
package post

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Operation names
const (
	OpFetch  = "posts.fetch"
	OpCreate = "posts.create"
	OpUpdate = "posts.update"
	OpDelete = "posts.delete"
)

type view struct {
	mu     sync.RWMutex
	userID string // empty for the community feed
	ids    []string
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.PostRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	logger  *slog.Logger
}

// New creates the post slice
func New(repo domain.PostRepository, st *store.Store, logger *slog.Logger, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &view{}
	t := request.NewTracker(append([]request.Option{st.SettleHook("posts")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

// ValidateContent checks post content the way the server does
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.NewValidationError("post cannot be empty")
	}
	if n := utf8.RuneCountInString(content); n > domain.MaxPostLength {
		return domain.NewValidationError("post is %d characters, the limit is %d", n, domain.MaxPostLength)
	}
	return nil
}

// FetchPosts replaces the list with the community feed
func (c *Commands) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) ([]domain.Post, error) {
			return c.repo.ListPosts(ctx)
		},
		func(posts []domain.Post) {
			c.replace("", posts)
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch posts", "error", err)
		return nil, err
	}
	c.logger.Debug("fetched posts", "count", len(posts))
	return posts, nil
}

// FetchUserPosts replaces the list with one user's posts
func (c *Commands) FetchUserPosts(ctx context.Context, userID string) ([]domain.Post, error) {
	posts, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) ([]domain.Post, error) {
			return c.repo.ListUserPosts(ctx, userID)
		},
		func(posts []domain.Post) {
			c.replace(userID, posts)
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch user posts", "error", err, "userID", userID)
		return nil, err
	}
	c.logger.Debug("fetched user posts", "userID", userID, "count", len(posts))
	return posts, nil
}

func (c *Commands) replace(userID string, posts []domain.Post) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	c.store.Posts.Upsert(posts...)

	c.view.mu.Lock()
	c.view.userID = userID
	c.view.ids = paging.Unique(ids)
	c.view.mu.Unlock()
}

// CreatePost publishes a post and puts it at the top of the list. Invalid
// content fails without a request.
func (c *Commands) CreatePost(ctx context.Context, content string) (*domain.Post, error) {
	content = strings.TrimSpace(content)
	p, err := request.Run(ctx, c.tracker, request.Op(OpCreate), request.Each,
		func(ctx context.Context) (*domain.Post, error) {
			if err := ValidateContent(content); err != nil {
				return nil, err
			}
			return c.repo.CreatePost(ctx, content)
		},
		func(p *domain.Post) {
			c.store.Posts.Upsert(*p)

			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			if c.view.userID == "" || c.view.userID == p.Owner.ID {
				c.view.ids = paging.Prepend(c.view.ids, p.ID)
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to create post", "error", err)
		return nil, err
	}
	c.logger.Info("created post", "id", p.ID)
	return p, nil
}

// UpdatePost edits a post's content in place
func (c *Commands) UpdatePost(ctx context.Context, postID, content string) (*domain.Post, error) {
	content = strings.TrimSpace(content)
	p, err := request.Run(ctx, c.tracker, request.Scoped(OpUpdate, postID), request.Each,
		func(ctx context.Context) (*domain.Post, error) {
			if err := ValidateContent(content); err != nil {
				return nil, err
			}
			return c.repo.UpdatePost(ctx, postID, content)
		},
		func(p *domain.Post) {
			c.store.Posts.Patch(postID, func(existing *domain.Post) {
				existing.Content = p.Content
				if !p.UpdatedAt.IsZero() {
					existing.UpdatedAt = p.UpdatedAt
				}
			})
		},
	)
	if err != nil {
		c.logger.Error("failed to update post", "error", err, "id", postID)
		return nil, err
	}
	if cached, ok := c.store.Posts.Get(postID); ok {
		p = &cached
	}
	c.logger.Info("updated post", "id", postID)
	return p, nil
}

func (c *Commands) DeletePost(ctx context.Context, postID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpDelete, postID), request.Each,
		func(ctx context.Context) error {
			return c.repo.DeletePost(ctx, postID)
		},
		func() {
			c.store.Posts.Delete(postID)
			c.view.mu.Lock()
			c.view.ids = paging.Remove(c.view.ids, postID)
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to delete post", "error", err, "id", postID)
		return err
	}
	c.logger.Info("deleted post", "id", postID)
	return nil
}

func (c *Commands) clear() {
	c.view.mu.Lock()
	c.view.userID = ""
	c.view.ids = nil
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
