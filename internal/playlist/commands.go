// Package playlist manages the viewer's playlists and the selected playlist.
//
// Playlists are stored with their video ids only. Videos that arrive embedded
// in a playlist response are upserted into the shared video table.
package playlist

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Operation names
const (
	OpFetch  = "playlists.fetch"
	OpGet    = "playlists.get"
	OpCreate = "playlists.create"
	OpUpdate = "playlists.update"
	OpDelete = "playlists.delete"
	OpAdd    = "playlists.add"
	OpRemove = "playlists.remove"
)

type view struct {
	mu       sync.RWMutex
	userID   string // owner of the listed playlists
	ids      []string
	loaded   bool
	selected string
}

// Commands provides asynchronous operations (includes CRUD).
type Commands struct {
	repo    domain.PlaylistRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	logger  *slog.Logger
}

// New creates the playlist slice
func New(repo domain.PlaylistRepository, st *store.Store, logger *slog.Logger, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &view{}
	t := request.NewTracker(append([]request.Option{st.SettleHook("playlists")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

// FetchUserPlaylists replaces the list with a user's playlists
func (c *Commands) FetchUserPlaylists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	pls, err := request.Run(ctx, c.tracker, request.Op(OpFetch), request.Latest,
		func(ctx context.Context) ([]domain.PlaylistWithVideos, error) {
			return c.repo.UserPlaylists(ctx, userID)
		},
		func(pls []domain.PlaylistWithVideos) {
			ids := make([]string, 0, len(pls))
			for _, p := range pls {
				c.save(p)
				ids = append(ids, p.ID)
			}
			c.view.mu.Lock()
			c.view.userID = userID
			c.view.ids = paging.Unique(ids)
			c.view.loaded = true
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch playlists", "error", err, "userID", userID)
		return nil, err
	}
	c.logger.Debug("fetched playlists", "count", len(pls), "userID", userID)
	return plain(pls), nil
}

// FetchPlaylist loads one playlist with its videos and selects it
func (c *Commands) FetchPlaylist(ctx context.Context, playlistID string) (*domain.PlaylistWithVideos, error) {
	p, err := request.Run(ctx, c.tracker, request.Op(OpGet), request.Latest,
		func(ctx context.Context) (*domain.PlaylistWithVideos, error) {
			return c.repo.GetPlaylist(ctx, playlistID)
		},
		func(p *domain.PlaylistWithVideos) {
			c.save(*p)
			c.view.mu.Lock()
			c.view.selected = p.ID
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch playlist items", "error", err, "playlistID", playlistID)
		return nil, err
	}
	c.logger.Debug("fetched playlist items", "count", len(p.VideoIDs), "playlistID", playlistID)
	return p, nil
}

func (c *Commands) CreatePlaylist(ctx context.Context, name, description string) (*domain.Playlist, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	p, err := request.Run(ctx, c.tracker, request.Op(OpCreate), request.Each,
		func(ctx context.Context) (*domain.PlaylistWithVideos, error) {
			if name == "" {
				return nil, domain.NewValidationError("playlist name is required")
			}
			return c.repo.CreatePlaylist(ctx, name, description)
		},
		func(p *domain.PlaylistWithVideos) {
			c.save(*p)
			c.view.mu.Lock()
			defer c.view.mu.Unlock()
			// Only the owner's listing gains the new playlist
			if c.view.userID == "" || c.view.userID == p.Owner.ID {
				c.view.ids = paging.Prepend(c.view.ids, p.ID)
			}
		},
	)
	if err != nil {
		c.logger.Error("failed to create playlist", "error", err, "name", name)
		return nil, err
	}
	c.logger.Info("created playlist", "name", name, "id", p.ID)
	return &p.Playlist, nil
}

// UpdatePlaylist renames a playlist in place
func (c *Commands) UpdatePlaylist(ctx context.Context, playlistID, name, description string) (*domain.Playlist, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	p, err := request.Run(ctx, c.tracker, request.Scoped(OpUpdate, playlistID), request.Each,
		func(ctx context.Context) (*domain.PlaylistWithVideos, error) {
			if name == "" {
				return nil, domain.NewValidationError("playlist name is required")
			}
			return c.repo.UpdatePlaylist(ctx, playlistID, name, description)
		},
		func(p *domain.PlaylistWithVideos) {
			c.store.Playlists.Patch(playlistID, func(existing *domain.Playlist) {
				existing.Name = p.Name
				existing.Description = p.Description
				if !p.UpdatedAt.IsZero() {
					existing.UpdatedAt = p.UpdatedAt
				}
			})
		},
	)
	if err != nil {
		c.logger.Error("failed to update playlist", "error", err, "playlistID", playlistID)
		return nil, err
	}
	c.logger.Info("updated playlist", "playlistID", playlistID)
	if cached, ok := c.store.Playlists.Get(playlistID); ok {
		return &cached, nil
	}
	return &p.Playlist, nil
}

// DeletePlaylist removes a playlist from the list and clears the selection
// if it was selected
func (c *Commands) DeletePlaylist(ctx context.Context, playlistID string) error {
	err := request.Exec(ctx, c.tracker, request.Scoped(OpDelete, playlistID), request.Each,
		func(ctx context.Context) error {
			return c.repo.DeletePlaylist(ctx, playlistID)
		},
		func() {
			c.store.Playlists.Delete(playlistID)
			c.view.mu.Lock()
			c.view.ids = paging.Remove(c.view.ids, playlistID)
			if c.view.selected == playlistID {
				c.view.selected = ""
			}
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to delete playlist", "error", err, "playlistID", playlistID)
		return err
	}
	c.logger.Info("deleted playlist", "playlistID", playlistID)
	return nil
}

// AddVideo appends a video to a playlist
func (c *Commands) AddVideo(ctx context.Context, playlistID, videoID string) error {
	err := c.changeMembership(ctx, OpAdd, playlistID, videoID, c.repo.AddVideo, func(ids []string) []string {
		return paging.AppendUnique(ids, videoID)
	})
	if err != nil {
		c.logger.Error("failed to add to playlist", "error", err, "playlistID", playlistID, "videoID", videoID)
		return err
	}
	c.logger.Info("added video to playlist", "playlistID", playlistID, "videoID", videoID)
	return nil
}

// RemoveVideo drops a video from a playlist
func (c *Commands) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	err := c.changeMembership(ctx, OpRemove, playlistID, videoID, c.repo.RemoveVideo, func(ids []string) []string {
		return paging.Remove(ids, videoID)
	})
	if err != nil {
		c.logger.Error("failed to remove from playlist", "error", err, "playlistID", playlistID, "videoID", videoID)
		return err
	}
	c.logger.Info("removed video from playlist", "playlistID", playlistID, "videoID", videoID)
	return nil
}

type membershipCall func(ctx context.Context, playlistID, videoID string) (*domain.PlaylistWithVideos, error)

// changeMembership adopts the video ids the server returned. fix makes sure
// the requested change is reflected even when the server answers with the
// document as it was before the update.
func (c *Commands) changeMembership(ctx context.Context, op, playlistID, videoID string, call membershipCall, fix func([]string) []string) error {
	_, err := request.Run(ctx, c.tracker, request.Scoped(op, playlistID+":"+videoID), request.Each,
		func(ctx context.Context) (*domain.PlaylistWithVideos, error) {
			return call(ctx, playlistID, videoID)
		},
		func(p *domain.PlaylistWithVideos) {
			c.store.Videos.Upsert(p.Videos...)
			c.store.Playlists.Patch(playlistID, func(existing *domain.Playlist) {
				existing.VideoIDs = fix(paging.Unique(p.VideoIDs))
				if !p.UpdatedAt.IsZero() {
					existing.UpdatedAt = p.UpdatedAt
				}
			})
		},
	)
	return err
}

// Membership reports which of a user's playlists contain a video. The
// playlists are fetched first if they are not loaded.
func (c *Commands) Membership(ctx context.Context, userID, videoID string) (map[string]bool, error) {
	c.view.mu.RLock()
	loaded := c.view.loaded && c.view.userID == userID
	c.view.mu.RUnlock()

	if !loaded {
		if _, err := c.FetchUserPlaylists(ctx, userID); err != nil {
			return nil, err
		}
	}
	return membership(c.store, c.view, videoID), nil
}

// Select points the selection at a cached playlist without fetching
func (c *Commands) Select(playlistID string) bool {
	if !c.store.Playlists.Has(playlistID) {
		return false
	}
	c.view.mu.Lock()
	c.view.selected = playlistID
	c.view.mu.Unlock()
	return true
}

func (c *Commands) save(p domain.PlaylistWithVideos) {
	c.store.Videos.Upsert(p.Videos...)
	c.store.Playlists.Upsert(p.Playlist)
}

func (c *Commands) clear() {
	c.view.mu.Lock()
	c.view.userID = ""
	c.view.ids = nil
	c.view.loaded = false
	c.view.selected = ""
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

func plain(pls []domain.PlaylistWithVideos) []domain.Playlist {
	out := make([]domain.Playlist, 0, len(pls))
	for _, p := range pls {
		out = append(out, p.Playlist)
	}
	return out
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
