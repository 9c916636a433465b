// Package subscription toggles channel subscriptions and lists who a user
// follows and who follows a channel.
package subscription

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
	OpToggle           = "subscriptions.toggle"
	OpFetchSubscribed  = "subscriptions.fetch_subscribed"
	OpFetchSubscribers = "subscriptions.fetch_subscribers"
)

type view struct {
	mu sync.RWMutex

	subscriberID  string
	subscribedIDs []string
	loaded        bool

	// Subscribers are users, not channel profiles; they are kept here
	// rather than in the channel table.
	channelID   string
	subscribers []domain.Channel
}

// Commands provides asynchronous operations that hit network.
type Commands struct {
	repo    domain.SubscriptionRepository
	store   *store.Store
	view    *view
	tracker *request.Tracker
	viewer  func() string
	logger  *slog.Logger
}

// New creates the subscription slice. viewer returns the signed-in user's
// id; toggles only edit lists that belong to that user. A nil viewer
// treats every list as the viewer's.
func New(repo domain.SubscriptionRepository, st *store.Store, logger *slog.Logger, viewer func() string, opts ...request.Option) (*Commands, *Queries) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &view{}
	t := request.NewTracker(append([]request.Option{st.SettleHook("subscriptions")}, opts...)...)

	c := &Commands{repo: repo, store: st, view: v, tracker: t, viewer: viewer, logger: logger}
	st.OnReset(c.clear)
	return c, &Queries{store: st, view: v, tracker: t}
}

// ToggleSubscription subscribes to or unsubscribes from a channel. The
// cached channel adopts the server's answer.
func (c *Commands) ToggleSubscription(ctx context.Context, channelID string) (domain.SubscriptionState, error) {
	st, err := request.Run(ctx, c.tracker, request.Scoped(OpToggle, channelID), request.Each,
		func(ctx context.Context) (domain.SubscriptionState, error) {
			st, err := c.repo.ToggleSubscription(ctx, channelID)
			st.ChannelID = channelID
			return st, err
		},
		c.apply,
	)
	if err != nil {
		c.logger.Error("failed to toggle subscription", "error", err, "channelID", channelID)
		return domain.SubscriptionState{}, err
	}
	c.logger.Info("toggled subscription", "channelID", channelID, "subscribed", st.Subscribed)
	return st, nil
}

func (c *Commands) apply(st domain.SubscriptionState) {
	c.store.Channels.Patch(st.ChannelID, func(ch *domain.Channel) {
		switch {
		case st.CountKnown:
			ch.SubscribersCount = st.SubscribersCount
		case ch.IsSubscribed != st.Subscribed && st.Subscribed:
			ch.SubscribersCount++
		case ch.IsSubscribed != st.Subscribed && ch.SubscribersCount > 0:
			ch.SubscribersCount--
		}
		ch.IsSubscribed = st.Subscribed
	})

	viewer := ""
	if c.viewer != nil {
		viewer = c.viewer()
	}

	c.view.mu.Lock()
	defer c.view.mu.Unlock()

	if c.viewer == nil || c.view.subscriberID == viewer {
		if !st.Subscribed {
			c.view.subscribedIDs = paging.Remove(c.view.subscribedIDs, st.ChannelID)
		} else if c.view.loaded && c.store.Channels.Has(st.ChannelID) {
			c.view.subscribedIDs = paging.Prepend(c.view.subscribedIDs, st.ChannelID)
		}
	}
	if !st.Subscribed && viewer != "" && c.view.channelID == st.ChannelID {
		c.view.subscribers = removeChannel(c.view.subscribers, viewer)
	}
}

// FetchSubscribedChannels replaces the list of channels a user follows
func (c *Commands) FetchSubscribedChannels(ctx context.Context, subscriberID string) ([]domain.Channel, error) {
	channels, err := request.Run(ctx, c.tracker, request.Op(OpFetchSubscribed), request.Latest,
		func(ctx context.Context) ([]domain.Channel, error) {
			return c.repo.SubscribedChannels(ctx, subscriberID)
		},
		func(channels []domain.Channel) {
			ids := make([]string, 0, len(channels))
			for _, ch := range channels {
				c.merge(ch, subscriberID)
				ids = append(ids, ch.ID)
			}
			c.view.mu.Lock()
			c.view.subscriberID = subscriberID
			c.view.subscribedIDs = paging.Unique(ids)
			c.view.loaded = true
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch subscribed channels", "error", err, "subscriberID", subscriberID)
		return nil, err
	}
	c.logger.Debug("fetched subscribed channels", "subscriberID", subscriberID, "count", len(channels))
	return channels, nil
}

// merge caches a channel from a subscription listing. Listings carry no
// counts, so a cached profile keeps its counts.
func (c *Commands) merge(ch domain.Channel, subscriberID string) {
	if c.viewer == nil || c.viewer() == subscriberID {
		ch.IsSubscribed = true
	}
	patched := c.store.Channels.Patch(ch.ID, func(existing *domain.Channel) {
		existing.Username = ch.Username
		existing.FullName = ch.FullName
		existing.AvatarURL = ch.AvatarURL
		if ch.IsSubscribed {
			existing.IsSubscribed = true
		}
		if !ch.SubscribedAt.IsZero() {
			existing.SubscribedAt = ch.SubscribedAt
		}
	})
	if !patched {
		c.store.Channels.Upsert(ch)
	}
}

// FetchSubscribers replaces the list of users following a channel
func (c *Commands) FetchSubscribers(ctx context.Context, channelID string) ([]domain.Channel, error) {
	subs, err := request.Run(ctx, c.tracker, request.Op(OpFetchSubscribers), request.Latest,
		func(ctx context.Context) ([]domain.Channel, error) {
			return c.repo.Subscribers(ctx, channelID)
		},
		func(subs []domain.Channel) {
			c.view.mu.Lock()
			c.view.channelID = channelID
			c.view.subscribers = uniqueChannels(subs)
			c.view.mu.Unlock()
		},
	)
	if err != nil {
		c.logger.Error("failed to fetch subscribers", "error", err, "channelID", channelID)
		return nil, err
	}
	c.logger.Debug("fetched subscribers", "channelID", channelID, "count", len(subs))
	return subs, nil
}

func (c *Commands) clear() {
	c.view.mu.Lock()
	c.view.subscriberID = ""
	c.view.subscribedIDs = nil
	c.view.loaded = false
	c.view.channelID = ""
	c.view.subscribers = nil
	c.view.mu.Unlock()
	c.tracker.ResetAll()
}

func uniqueChannels(in []domain.Channel) []domain.Channel {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Channel, 0, len(in))
	for _, ch := range in {
		if _, ok := seen[ch.ID]; ok || ch.ID == "" {
			continue
		}
		seen[ch.ID] = struct{}{}
		out = append(out, ch)
	}
	return out
}

func removeChannel(in []domain.Channel, id string) []domain.Channel {
	out := make([]domain.Channel, 0, len(in))
	for _, ch := range in {
		if ch.ID != id {
			out = append(out, ch)
		}
	}
	return out
}

// CancelAll aborts every in-flight operation of the slice
func (c *Commands) CancelAll() {
	c.tracker.CancelAll()
}
