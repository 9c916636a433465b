package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mmcdole/vidtube/internal/domain"
)

// ToggleSubscription flips the subscription to a channel. The new state
// may come inside the envelope's data or beside it at the top level.
func (c *Client) ToggleSubscription(ctx context.Context, channelID string) (domain.SubscriptionState, error) {
	body, err := c.call(ctx, newRequest(http.MethodPost, "/subscriptions/c/"+url.PathEscape(channelID)))
	if err != nil {
		return domain.SubscriptionState{}, err
	}

	var inner, outer subscriptionStateDTO
	if err := decodeEnvelope(body, &inner); err != nil {
		return domain.SubscriptionState{}, err
	}
	_ = json.Unmarshal(body, &outer)

	flag := firstBool(inner.IsSubscribed, inner.Subscribed, outer.IsSubscribed, outer.Subscribed)
	if flag == nil {
		return domain.SubscriptionState{}, &domain.APIError{Kind: domain.KindServer, Message: "toggle response carried no subscription state"}
	}

	st := domain.SubscriptionState{ChannelID: channelID, Subscribed: *flag}
	count := inner.SubscribersCount
	if count == nil {
		count = outer.SubscribersCount
	}
	if count != nil {
		st.SubscribersCount = *count
		st.CountKnown = true
	}
	return st, nil
}

func firstBool(flags ...*bool) *bool {
	for _, f := range flags {
		if f != nil {
			return f
		}
	}
	return nil
}

func (c *Client) SubscribedChannels(ctx context.Context, subscriberID string) ([]domain.Channel, error) {
	return c.channelList(ctx, "/subscriptions/u/"+url.PathEscape(subscriberID))
}

func (c *Client) Subscribers(ctx context.Context, channelID string) ([]domain.Channel, error) {
	return c.channelList(ctx, "/subscriptions/c/"+url.PathEscape(channelID))
}

func (c *Client) channelList(ctx context.Context, path string) ([]domain.Channel, error) {
	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, path), &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeList[channelDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapChannels(dtos), nil
}
