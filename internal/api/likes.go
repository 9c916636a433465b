package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/vidtube/internal/domain"
)

// ToggleLike flips the viewer's like on a video, comment or post and
// returns the state the server settled on.
func (c *Client) ToggleLike(ctx context.Context, kind domain.LikeKind, targetID string) (domain.LikeState, error) {
	path := "/likes/toggle/" + kind.PathSegment() + "/" + url.PathEscape(targetID)

	var dto likeStateDTO
	if err := c.do(ctx, newRequest(http.MethodPost, path), &dto); err != nil {
		return domain.LikeState{}, err
	}

	flag := dto.IsLiked
	if flag == nil {
		flag = dto.Liked
	}
	if flag == nil {
		return domain.LikeState{}, &domain.APIError{Kind: domain.KindServer, Message: "toggle response carried no like state"}
	}

	st := domain.LikeState{Kind: kind, TargetID: targetID, Liked: *flag}
	if dto.LikesCount != nil {
		st.LikesCount = *dto.LikesCount
		st.CountKnown = true
	}
	return st, nil
}

func (c *Client) LikedVideos(ctx context.Context) ([]domain.Video, error) {
	var raw rawJSON
	if err := c.do(ctx, newRequest(http.MethodGet, "/likes/videos"), &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeList[likedVideoDTO](raw)
	if err != nil {
		return nil, err
	}
	return mapLikedVideos(dtos), nil
}
