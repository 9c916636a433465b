package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// rawJSON receives envelope data that needs a second decoding pass
type rawJSON = json.RawMessage

// envelope is the wrapper every endpoint responds with
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    *bool           `json:"success"`
}

// decodeEnvelope decodes the envelope's data into out. Bodies that are not
// an envelope are decoded as the data itself.
func decodeEnvelope(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	data := body
	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && (env.Success != nil || env.StatusCode != 0 || len(env.Data) > 0) {
			data = env.Data
		}
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// pageDTO is the paginated list shape. The same decoder serves every list
// endpoint: bare arrays become a single complete page.
type pageDTO[T any] struct {
	Docs       []T `json:"docs"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Limit      int `json:"limit"`
	TotalDocs  int `json:"totalDocs"`

	bare bool // decoded from a bare array
}

// atPage places a bare-array result at the requested page. A full page
// means there may be another; a short page is taken as the last one.
func (p pageDTO[T]) atPage(page, limit int) pageDTO[T] {
	if !p.bare {
		return p
	}
	page = max(page, 1)
	p.Page = page
	if limit > 0 {
		p.Limit = limit
	}
	p.TotalPages = page
	if limit > 0 && len(p.Docs) >= limit {
		p.TotalPages = page + 1
	}
	return p
}

func decodePage[T any](raw json.RawMessage) (pageDTO[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return pageDTO[T]{Page: 1, TotalPages: 1}, nil
	}

	if raw[0] == '[' {
		var docs []T
		if err := json.Unmarshal(raw, &docs); err != nil {
			return pageDTO[T]{}, fmt.Errorf("failed to parse list: %w", err)
		}
		return pageDTO[T]{Docs: docs, Page: 1, TotalPages: 1, Limit: len(docs), TotalDocs: len(docs), bare: true}, nil
	}

	var p pageDTO[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		return pageDTO[T]{}, fmt.Errorf("failed to parse page: %w", err)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.TotalPages < p.Page && len(p.Docs) > 0 {
		p.TotalPages = p.Page
	}
	if p.TotalDocs == 0 {
		p.TotalDocs = len(p.Docs)
	}
	return p, nil
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	p, err := decodePage[T](raw)
	if err != nil {
		return nil, err
	}
	return p.Docs, nil
}

// ref is an embedded reference that the server sends either as a bare id
// or as a populated object.
type ref struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain ref
	if len(data) > 0 && data[0] == '[' {
		// $lookup without $first yields a one-element array
		var ps []plain
		if err := json.Unmarshal(data, &ps); err != nil {
			return err
		}
		if len(ps) > 0 {
			*r = ref(ps[0])
		}
		return nil
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ref(p)
	return nil
}

type userDTO struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

type loginDTO struct {
	User         userDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

type tokensDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type channelDTO struct {
	ID                        string    `json:"_id"`
	ChannelID                 string    `json:"channelId"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int       `json:"subscribersCount"`
	ChannelsSubscribedToCount int       `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	SubscribedAt              time.Time `json:"subscribedAt"`

	// Subscription documents wrap the channel or subscriber
	SubscribedChannel *channelDTO `json:"subscribedChannel"`
	Subscriber        *channelDTO `json:"subscriber"`
}

type videoDTO struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"` // seconds
	Views       int       `json:"views"`
	IsPublished bool      `json:"isPublished"`
	Owner       ref       `json:"owner"`
	LikesCount  int       `json:"likesCount"`
	IsLiked     bool      `json:"isLiked"`
	CreatedAt   time.Time `json:"createdAt"`
}

// videoRef is a playlist entry: a video id or a populated video
type videoRef struct {
	videoDTO
}

func (v *videoRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &v.ID)
	}
	return json.Unmarshal(data, &v.videoDTO)
}

// populated reports whether the server sent more than the id
func (v videoRef) populated() bool {
	return v.Title != "" || v.VideoFile != "" || v.Thumbnail != ""
}

// likedVideoDTO is an entry of the liked-videos list: either the like
// document wrapping the video or the video itself
type likedVideoDTO struct {
	videoDTO
	Video      *videoDTO `json:"video"`
	LikedVideo *videoDTO `json:"likedVideo"`
}

func (l likedVideoDTO) unwrap() videoDTO {
	switch {
	case l.Video != nil:
		return *l.Video
	case l.LikedVideo != nil:
		return *l.LikedVideo
	default:
		return l.videoDTO
	}
}

type publishDTO struct {
	IsPublished bool `json:"isPublished"`
}

type postDTO struct {
	ID         string    `json:"_id"`
	Content    string    `json:"content"`
	Owner      ref       `json:"owner"`
	LikesCount int       `json:"likesCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type commentDTO struct {
	ID         string    `json:"_id"`
	Content    string    `json:"content"`
	Video      ref       `json:"video"`
	Owner      ref       `json:"owner"`
	LikesCount int       `json:"likesCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`
}

type playlistDTO struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       ref        `json:"owner"`
	Videos      []videoRef `json:"videos"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type likeStateDTO struct {
	IsLiked    *bool `json:"isLiked"`
	Liked      *bool `json:"liked"`
	LikesCount *int  `json:"likesCount"`
}

type subscriptionStateDTO struct {
	IsSubscribed     *bool `json:"isSubscribed"`
	Subscribed       *bool `json:"subscribed"`
	SubscribersCount *int  `json:"subscribersCount"`
}
