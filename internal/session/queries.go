package session

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

func (q *Queries) Session() domain.Session {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.session
}

// CurrentUser returns the signed-in or just-registered user
func (q *Queries) CurrentUser() (domain.User, bool) {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	u := q.view.session.User
	return u, u.ID != ""
}

// UserID returns the signed-in user's id, empty when signed out
func (q *Queries) UserID() string {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	if !q.view.session.IsAuthenticated() {
		return ""
	}
	return q.view.session.User.ID
}

func (q *Queries) IsAuthenticated() bool {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.session.IsAuthenticated()
}

func (q *Queries) AuthStatus() domain.AuthStatus {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.session.Status
}

// AccessToken is read by the API client for every request
func (q *Queries) AccessToken() string {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.session.AccessToken
}

func (q *Queries) RefreshToken() string {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.view.session.RefreshToken
}

// Channel returns the viewed channel
func (q *Queries) Channel() (domain.Channel, bool) {
	q.view.mu.RLock()
	id := q.view.channelID
	q.view.mu.RUnlock()
	if id == "" {
		return domain.Channel{}, false
	}
	return q.store.Channels.Get(id)
}

// WatchHistory returns watched videos, most recent first
func (q *Queries) WatchHistory() []domain.Video {
	q.view.mu.RLock()
	defer q.view.mu.RUnlock()
	return q.store.Videos.GetMany(q.view.historyIDs)
}

func (q *Queries) Status(op string) request.Status {
	return q.tracker.StatusOf(op)
}

func (q *Queries) Err() error {
	return q.tracker.Err()
}
