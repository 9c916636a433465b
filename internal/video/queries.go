package video

import (
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/paging"
	"github.com/mmcdole/vidtube/internal/request"
	"github.com/mmcdole/vidtube/internal/store"
)

// Queries provides synchronous, cache-only reads.
type Queries struct {
	store   *store.Store
	view    *view
	tracker *request.Tracker
}

// Videos returns the accumulated listing in server order
func (q *Queries) Videos() []domain.Video {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Videos.GetMany(q.view.ids)
}

// Video returns any cached video, listed or not
func (q *Queries) Video(videoID string) (domain.Video, bool) {
	return q.store.Videos.Get(videoID)
}

// Selected returns the video last fetched with FetchVideo
func (q *Queries) Selected() (domain.Video, bool) {
	q.view.mu.RLock()
	id := q.view.selected
	q.view.mu.RUnlock()
	if id == "" {
		return domain.Video{}, false
	}
	return q.store.Videos.Get(id)
}

func (q *Queries) Cursor() paging.Cursor {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.cursor
}

func (q *Queries) HasMore() bool {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.cursor.Loaded() && q.view.cursor.HasMore()
}

// Query is the filter of the current listing
func (q *Queries) Query() domain.ListQuery {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.query
}

// Cached returns every cached video, including those outside the listing
func (q *Queries) Cached() []domain.Video {
	return q.store.Videos.Values()
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
