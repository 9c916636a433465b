package post

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

// Posts returns the listed posts, newest first
func (q *Queries) Posts() []domain.Post {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Posts.GetMany(q.view.ids)
}

func (q *Queries) Post(postID string) (domain.Post, bool) {
	return q.store.Posts.Get(postID)
}

// UserID is the owner of the listed posts, empty for the community feed
func (q *Queries) UserID() string {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.userID
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
