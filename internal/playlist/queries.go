package playlist

import (
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Queries provides synchronous, cache-only reads.
type Queries struct {
	store   *store.Store
	view    *view
	tracker *request.Tracker
}

// Playlists returns the listed playlists, newest creation first
func (q *Queries) Playlists() []domain.Playlist {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Playlists.GetMany(q.view.ids)
}

func (q *Queries) Playlist(playlistID string) (domain.Playlist, bool) {
	return q.store.Playlists.Get(playlistID)
}

func (q *Queries) Selected() (domain.Playlist, bool) {
	q.view.mu.RLock()
	id := q.view.selected
	q.view.mu.RUnlock()
	if id == "" {
		return domain.Playlist{}, false
	}
	return q.store.Playlists.Get(id)
}

// SelectedVideos resolves the selected playlist's videos in playlist order.
// Videos that are not cached are skipped.
func (q *Queries) SelectedVideos() []domain.Video {
	p, ok := q.Selected()
	if !ok {
		return nil
	}
	return q.store.Videos.GetMany(p.VideoIDs)
}

// Videos resolves any cached playlist's videos
func (q *Queries) Videos(playlistID string) []domain.Video {
	p, ok := q.store.Playlists.Get(playlistID)
	if !ok {
		return nil
	}
	return q.store.Videos.GetMany(p.VideoIDs)
}

// Membership reports which listed playlists contain a video
func (q *Queries) Membership(videoID string) map[string]bool {
	return membership(q.store, q.view, videoID)
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}

func membership(st *store.Store, v *view, videoID string) map[string]bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]bool)
	for _, p := range st.Playlists.GetMany(v.ids) {
		if p.Contains(videoID) {
			out[p.ID] = true
		}
	}
	return out
}
