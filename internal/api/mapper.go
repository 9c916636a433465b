package api

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/vidtube/internal/domain"
)

// strict strips all markup from user-generated text
var strict = bluemonday.StrictPolicy()

// cleanText removes markup and decodes entities so text renders verbatim
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// htmlErrorText extracts the message of an HTML error page, e.g. the
// "<pre>Error: ...</pre>" body of an unhandled server exception.
func htmlErrorText(body []byte) string {
	text := cleanText(string(body))
	if text == "" {
		return ""
	}
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "Error: ")
	return line
}

func mapOwner(r ref) domain.Owner {
	return domain.Owner{
		ID:        r.ID,
		Username:  r.Username,
		FullName:  cleanText(r.FullName),
		AvatarURL: r.Avatar,
	}
}

func mapUser(u userDTO) domain.User {
	return domain.User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      cleanText(u.FullName),
		AvatarURL:     u.Avatar,
		CoverImageURL: u.CoverImage,
		CreatedAt:     u.CreatedAt,
	}
}

func mapChannel(c channelDTO) domain.Channel {
	if c.SubscribedChannel != nil {
		inner := mapChannel(*c.SubscribedChannel)
		if inner.SubscribedAt.IsZero() {
			inner.SubscribedAt = c.SubscribedAt
		}
		return inner
	}
	if c.Subscriber != nil {
		inner := mapChannel(*c.Subscriber)
		if inner.SubscribedAt.IsZero() {
			inner.SubscribedAt = c.SubscribedAt
		}
		return inner
	}

	id := c.ChannelID
	if id == "" {
		id = c.ID
	}
	return domain.Channel{
		ID:                id,
		Username:          c.Username,
		FullName:          cleanText(c.FullName),
		AvatarURL:         c.Avatar,
		CoverImageURL:     c.CoverImage,
		SubscribersCount:  c.SubscribersCount,
		SubscribedToCount: c.ChannelsSubscribedToCount,
		IsSubscribed:      c.IsSubscribed,
		SubscribedAt:      c.SubscribedAt,
	}
}

func mapChannels(dtos []channelDTO) []domain.Channel {
	out := make([]domain.Channel, 0, len(dtos))
	for _, d := range dtos {
		if ch := mapChannel(d); ch.ID != "" {
			out = append(out, ch)
		}
	}
	return out
}

func mapVideo(v videoDTO) domain.Video {
	return domain.Video{
		ID:           v.ID,
		Title:        cleanText(v.Title),
		Description:  cleanText(v.Description),
		VideoURL:     v.VideoFile,
		ThumbnailURL: v.Thumbnail,
		Duration:     time.Duration(v.Duration * float64(time.Second)),
		Owner:        mapOwner(v.Owner),
		LikesCount:   v.LikesCount,
		IsLiked:      v.IsLiked,
		Views:        v.Views,
		IsPublished:  v.IsPublished,
		CreatedAt:    v.CreatedAt,
	}
}

func mapVideos(dtos []videoDTO) []domain.Video {
	out := make([]domain.Video, 0, len(dtos))
	for _, d := range dtos {
		if d.ID != "" {
			out = append(out, mapVideo(d))
		}
	}
	return out
}

func mapLikedVideos(dtos []likedVideoDTO) []domain.Video {
	out := make([]domain.Video, 0, len(dtos))
	for _, d := range dtos {
		v := d.unwrap()
		if v.ID == "" {
			continue
		}
		mv := mapVideo(v)
		// Everything in this list is liked by the viewer
		mv.IsLiked = true
		out = append(out, mv)
	}
	return out
}

func mapPost(p postDTO) domain.Post {
	return domain.Post{
		ID:         p.ID,
		Content:    cleanText(p.Content),
		Owner:      mapOwner(p.Owner),
		LikesCount: p.LikesCount,
		IsLiked:    p.IsLiked,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func mapPosts(dtos []postDTO) []domain.Post {
	out := make([]domain.Post, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, mapPost(d))
	}
	return out
}

func mapComment(c commentDTO) domain.Comment {
	return domain.Comment{
		ID:         c.ID,
		Content:    cleanText(c.Content),
		VideoID:    c.Video.ID,
		Owner:      mapOwner(c.Owner),
		LikesCount: c.LikesCount,
		IsLiked:    c.IsLiked,
		CreatedAt:  c.CreatedAt,
	}
}

func mapComments(dtos []commentDTO, videoID string) []domain.Comment {
	out := make([]domain.Comment, 0, len(dtos))
	for _, d := range dtos {
		c := mapComment(d)
		if c.VideoID == "" {
			c.VideoID = videoID
		}
		out = append(out, c)
	}
	return out
}

func mapPlaylist(p playlistDTO) domain.PlaylistWithVideos {
	pl := domain.PlaylistWithVideos{
		Playlist: domain.Playlist{
			ID:          p.ID,
			Name:        cleanText(p.Name),
			Description: cleanText(p.Description),
			Owner:       mapOwner(p.Owner),
			VideoIDs:    make([]string, 0, len(p.Videos)),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		},
	}
	for _, v := range p.Videos {
		if v.ID == "" {
			continue
		}
		pl.VideoIDs = append(pl.VideoIDs, v.ID)
		if v.populated() {
			pl.Videos = append(pl.Videos, mapVideo(v.videoDTO))
		}
	}
	return pl
}

func mapPlaylists(dtos []playlistDTO) []domain.PlaylistWithVideos {
	out := make([]domain.PlaylistWithVideos, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, mapPlaylist(d))
	}
	return out
}
