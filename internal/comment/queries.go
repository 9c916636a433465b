package comment

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

// Comments returns the listed comments, newest additions first
func (q *Queries) Comments() []domain.Comment {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Comments.GetMany(q.view.ids)
}

func (q *Queries) Cursor() paging.Cursor {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.cursor
}

// HasMore reports whether another page can be loaded. False before the
// first fetch of a video.
func (q *Queries) HasMore() bool {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.videoID != "" && q.view.cursor.HasMore()
}

// VideoID is the video whose comments are listed
func (q *Queries) VideoID() string {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.videoID
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
