package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/vidtube/internal/domain"
)

func (c *Client) CreatePost(ctx context.Context, content string) (*domain.Post, error) {
	r, err := newRequest(http.MethodPost, "/posts").withJSON(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	var dto postDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	p := mapPost(dto)
	return &p, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return c.listPosts(ctx, "/posts")
}

func (c *Client) ListUserPosts(ctx context.Context, userID string) ([]domain.Post, error) {
	return c.listPosts(ctx, "/posts/user/"+url.PathEscape(userID))
}

func (c *Client) listPosts(ctx context.Context, path string) ([]domain.Post, error) {
	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, path), &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeList[postDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapPosts(dtos), nil
}

func (c *Client) UpdatePost(ctx context.Context, postID, content string) (*domain.Post, error) {
	r, err := newRequest(http.MethodPatch, "/posts/update_post/"+url.PathEscape(postID)).withJSON(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	var dto postDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	p := mapPost(dto)
	return &p, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, newRequest(http.MethodDelete, "/posts/"+url.PathEscape(postID)), nil)
}
