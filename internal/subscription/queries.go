package subscription

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

// SubscribedChannels returns the channels the listed user follows
func (q *Queries) SubscribedChannels() []domain.Channel {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Channels.GetMany(q.view.subscribedIDs)
}

// Subscribers returns the users following the listed channel
func (q *Queries) Subscribers() []domain.Channel {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return append([]domain.Channel(nil), q.view.subscribers...)
}

// IsSubscribed reads the cached flag. Channels that are not cached report
// false.
func (q *Queries) IsSubscribed(channelID string) bool {
	ch, ok := q.store.Channels.Get(channelID)
	return ok && ch.IsSubscribed
}

func (q *Queries) Channel(channelID string) (domain.Channel, bool) {
	return q.store.Channels.Get(channelID)
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
