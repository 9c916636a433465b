package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/vidtube/internal/domain"
)

// ListVideos returns one page of the video catalogue
func (c *Client) ListVideos(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Video], error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Query != "" {
		query.Set("query", q.Query)
	}
	if q.SortBy != "" {
		query.Set("sortBy", q.SortBy)
	}
	if q.SortType != "" {
		query.Set("sortType", q.SortType)
	}
	if q.UserID != "" {
		query.Set("userId", q.UserID)
	}

	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, "/videos").withQuery(query), &raw); err != nil {
		return domain.Page[domain.Video]{}, err
	}
	p, err := decodePage[videoDTO](raw)
	if err != nil {
		return domain.Page[domain.Video]{}, err
	}
	p = p.atPage(q.Page, q.Limit)
	return domain.Page[domain.Video]{
		Docs:       mapVideos(p.Docs),
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Limit:      p.Limit,
		TotalDocs:  p.TotalDocs,
	}, nil
}

func (c *Client) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	var dto videoDTO
	if err := c.do(ctx, newRequest(http.MethodGet, "/videos/"+url.PathEscape(videoID)), &dto); err != nil {
		return nil, err
	}
	if dto.ID == "" {
		return nil, &domain.APIError{Kind: domain.KindNotFound, Status: http.StatusNotFound, Message: "video not found"}
	}
	v := mapVideo(dto)
	return &v, nil
}

func (c *Client) UpdateVideo(ctx context.Context, videoID string, in domain.VideoUpdate) (*domain.Video, error) {
	body := map[string]string{}
	if in.Title != "" {
		body["title"] = in.Title
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	r, err := newRequest(http.MethodPatch, "/videos/"+url.PathEscape(videoID)).withJSON(body)
	if err != nil {
		return nil, err
	}

	var dto videoDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	v := mapVideo(dto)
	return &v, nil
}

func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	return c.do(ctx, newRequest(http.MethodDelete, "/videos/"+url.PathEscape(videoID)), nil)
}

func (c *Client) TogglePublish(ctx context.Context, videoID string) (bool, error) {
	var dto publishDTO
	if err := c.do(ctx, newRequest(http.MethodPatch, "/videos/toggle/publish/"+url.PathEscape(videoID)), &dto); err != nil {
		return false, err
	}
	return dto.IsPublished, nil
}
