package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/vidtube/internal/domain"
)

// ListComments returns one page of a video's comments
func (c *Client) ListComments(ctx context.Context, videoID string, page, limit int) (domain.Page[domain.Comment], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var raw rawJSON
	r := newRequest(http.MethodGet, "/comments/"+url.PathEscape(videoID)).withQuery(query)
	if err := c.do(ctx, r, &raw); err != nil {
		return domain.Page[domain.Comment]{}, err
	}
	p, err := decodePage[commentDTO](raw)
	if err != nil {
		return domain.Page[domain.Comment]{}, err
	}
	p = p.atPage(page, limit)
	return domain.Page[domain.Comment]{
		Docs:       mapComments(p.Docs, videoID),
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Limit:      p.Limit,
		TotalDocs:  p.TotalDocs,
	}, nil
}

func (c *Client) AddComment(ctx context.Context, videoID, content string) (*domain.Comment, error) {
	r, err := newRequest(http.MethodPost, "/comments/"+url.PathEscape(videoID)).withJSON(map[string]string{"comment": content})
	if err != nil {
		return nil, err
	}
	var dto commentDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	cm := mapComment(dto)
	if cm.VideoID == "" {
		cm.VideoID = videoID
	}
	return &cm, nil
}

func (c *Client) UpdateComment(ctx context.Context, commentID, content string) (*domain.Comment, error) {
	r, err := newRequest(http.MethodPatch, "/comments/"+url.PathEscape(commentID)).withJSON(map[string]string{"comment": content})
	if err != nil {
		return nil, err
	}
	var dto commentDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	cm := mapComment(dto)
	return &cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, newRequest(http.MethodDelete, "/comments/"+url.PathEscape(commentID)), nil)
}
