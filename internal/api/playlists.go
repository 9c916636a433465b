package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/vidtube/internal/domain"
)

func (c *Client) UserPlaylists(ctx context.Context, userID string) ([]domain.PlaylistWithVideos, error) {
	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, "/playlists/user/"+url.PathEscape(userID)), &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeList[playlistDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapPlaylists(dtos), nil
}

func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*domain.PlaylistWithVideos, error) {
	return c.playlistCall(ctx, newRequest(http.MethodGet, "/playlists/"+url.PathEscape(playlistID)))
}

func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*domain.PlaylistWithVideos, error) {
	r, err := newRequest(http.MethodPost, "/playlists").withJSON(map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	return c.playlistCall(ctx, r)
}

func (c *Client) UpdatePlaylist(ctx context.Context, playlistID, name, description string) (*domain.PlaylistWithVideos, error) {
	r, err := newRequest(http.MethodPatch, "/playlists/"+url.PathEscape(playlistID)).withJSON(map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	return c.playlistCall(ctx, r)
}

func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	return c.do(ctx, newRequest(http.MethodDelete, "/playlists/"+url.PathEscape(playlistID)), nil)
}

func (c *Client) AddVideo(ctx context.Context, playlistID, videoID string) (*domain.PlaylistWithVideos, error) {
	path := "/playlists/add/" + url.PathEscape(videoID) + "/" + url.PathEscape(playlistID)
	return c.playlistCall(ctx, newRequest(http.MethodPatch, path))
}

func (c *Client) RemoveVideo(ctx context.Context, playlistID, videoID string) (*domain.PlaylistWithVideos, error) {
	path := "/playlists/remove/" + url.PathEscape(videoID) + "/" + url.PathEscape(playlistID)
	return c.playlistCall(ctx, newRequest(http.MethodPatch, path))
}

func (c *Client) playlistCall(ctx context.Context, r *apiRequest) (*domain.PlaylistWithVideos, error) {
	var dto playlistDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	if dto.ID == "" {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: "playlist response carried no playlist"}
	}
	p := mapPlaylist(dto)
	return &p, nil
}
