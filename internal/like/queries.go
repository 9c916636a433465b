package like

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

// LikedVideos returns the liked-videos list, most recent like first
func (q *Queries) LikedVideos() []domain.Video {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Videos.GetMany(q.view.ids)
}

// IsLiked reads the cached flag of a target. Targets that are not cached
// report false.
func (q *Queries) IsLiked(kind domain.LikeKind, targetID string) bool {
	switch kind {
	case domain.LikeComment:
		cm, ok := q.store.Comments.Get(targetID)
		return ok && cm.IsLiked
	case domain.LikePost:
		p, ok := q.store.Posts.Get(targetID)
		return ok && p.IsLiked
	default:
		v, ok := q.store.Videos.Get(targetID)
		return ok && v.IsLiked
	}
}

// Pending reports whether a toggle of the target is in flight
func (q *Queries) Pending(kind domain.LikeKind, targetID string) bool {
	return q.tracker.Pending(toggleKey(kind, targetID))
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
