package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mmcdole/vidtube/internal/domain"
)

// Register creates an account with a multipart form, uploading the avatar
// and cover image when paths are given.
func (c *Client) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"fullName", in.FullName},
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}
	if err := attachFile(w, "avatar", in.AvatarPath); err != nil {
		return nil, err
	}
	if err := attachFile(w, "coverImage", in.CoverImagePath); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	r := newRequest(http.MethodPost, "/users/register").asPublic()
	r.body = buf.Bytes()
	r.contentType = w.FormDataContentType()

	var dto userDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	u := mapUser(dto)
	return &u, nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.NewValidationError("cannot read %s: %v", field, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	r, err := newRequest(http.MethodPost, "/users/login").asPublic().withJSON(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var dto loginDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	if dto.AccessToken == "" {
		return nil, &domain.APIError{Kind: domain.KindServer, Message: "login response carried no access token"}
	}
	return &domain.Session{
		User:         mapUser(dto.User),
		AccessToken:  dto.AccessToken,
		RefreshToken: dto.RefreshToken,
		Status:       domain.AuthAuthenticated,
	}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, newRequest(http.MethodPost, "/users/logout"), nil)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	r, err := newRequest(http.MethodPost, "/users/refresh-token").asPublic().withJSON(map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return "", "", err
	}

	var dto tokensDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return "", "", err
	}
	if dto.AccessToken == "" {
		return "", "", &domain.APIError{Kind: domain.KindUnauthenticated, Message: "refresh response carried no access token"}
	}
	if dto.RefreshToken == "" {
		dto.RefreshToken = refreshToken
	}
	return dto.AccessToken, dto.RefreshToken, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var dto userDTO
	if err := c.do(ctx, newRequest(http.MethodGet, "/users/current-user"), &dto); err != nil {
		return nil, err
	}
	u := mapUser(dto)
	return &u, nil
}

// UpdateProfile sends the changed fields as a form, the same encoding
// Register uses. Empty fields are left out.
func (c *Client) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range map[string]string{"fullName": in.FullName, "email": in.Email} {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	r := newRequest(http.MethodPatch, "/users/update-profile")
	r.body = buf.Bytes()
	r.contentType = w.FormDataContentType()

	var dto userDTO
	if err := c.do(ctx, r, &dto); err != nil {
		return nil, err
	}
	u := mapUser(dto)
	return &u, nil
}

func (c *Client) Channel(ctx context.Context, username string) (*domain.Channel, error) {
	path := "/users/c/" + url.PathEscape(username)
	var dto channelDTO
	if err := c.do(ctx, newRequest(http.MethodGet, path), &dto); err != nil {
		return nil, err
	}
	ch := mapChannel(dto)
	return &ch, nil
}

func (c *Client) WatchHistory(ctx context.Context) ([]domain.Video, error) {
	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, "/users/history"), &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeList[videoDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapVideos(dtos), nil
}

func (c *Client) AddToWatchHistory(ctx context.Context, videoID string) error {
	return c.do(ctx, newRequest(http.MethodPost, "/users/history/"+url.PathEscape(videoID)), nil)
}
