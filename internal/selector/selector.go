// Package selector derives read views from cached entities and the session.
// Every function is pure: the same snapshots always produce the same result.
package selector

import (
	"strconv"
	"time"

	"github.com/mmcdole/vidtube/internal/domain"
)

// IsOwner reports whether owner is the session's user. An expired session
// still identifies its user.
func IsOwner(s domain.Session, owner domain.Owner) bool {
	return owner.ID != "" && owner.ID == s.User.ID
}

// CanModify reports whether the session may edit or delete content by owner
func CanModify(s domain.Session, owner domain.Owner) bool {
	return s.IsAuthenticated() && IsOwner(s, owner)
}

// IsLiked reports a cached like flag as seen by the session. Like state is
// relative to the viewer, so it reads false when nobody is signed in.
func IsLiked(s domain.Session, liked bool) bool {
	return s.IsAuthenticated() && liked
}

// CommentView is a comment with flags derived for the viewer
type CommentView struct {
	domain.Comment
	IsOwner   bool
	CanModify bool
	Liked     bool
	Posted    string
}

func NewCommentView(s domain.Session, cm domain.Comment) CommentView {
	return CommentView{
		Comment:   cm,
		IsOwner:   IsOwner(s, cm.Owner),
		CanModify: CanModify(s, cm.Owner),
		Liked:     IsLiked(s, cm.IsLiked),
		Posted:    FormatDate(cm.CreatedAt),
	}
}

// CommentViews maps NewCommentView over a list, keeping order
func CommentViews(s domain.Session, comments []domain.Comment) []CommentView {
	out := make([]CommentView, len(comments))
	for i, cm := range comments {
		out[i] = NewCommentView(s, cm)
	}
	return out
}

// PostView is a post with flags derived for the viewer
type PostView struct {
	domain.Post
	IsOwner   bool
	CanModify bool
	Liked     bool
	Edited    bool
	Posted    string
}

func NewPostView(s domain.Session, p domain.Post) PostView {
	return PostView{
		Post:      p,
		IsOwner:   IsOwner(s, p.Owner),
		CanModify: CanModify(s, p.Owner),
		Liked:     IsLiked(s, p.IsLiked),
		Edited:    !p.UpdatedAt.IsZero() && p.UpdatedAt.After(p.CreatedAt),
		Posted:    FormatDate(p.CreatedAt),
	}
}

func PostViews(s domain.Session, posts []domain.Post) []PostView {
	out := make([]PostView, len(posts))
	for i, p := range posts {
		out[i] = NewPostView(s, p)
	}
	return out
}

// VideoView is a video with display fields for list rows
type VideoView struct {
	domain.Video
	IsOwner  bool
	Liked    bool
	Duration string
	Views    string
	Likes    string
	Uploaded string
}

func NewVideoView(s domain.Session, v domain.Video) VideoView {
	return VideoView{
		Video:    v,
		IsOwner:  IsOwner(s, v.Owner),
		Liked:    IsLiked(s, v.IsLiked),
		Duration: FormatDuration(v.Duration),
		Views:    FormatCount(v.Views),
		Likes:    FormatCount(v.LikesCount),
		Uploaded: FormatDate(v.CreatedAt),
	}
}

func VideoViews(s domain.Session, videos []domain.Video) []VideoView {
	out := make([]VideoView, len(videos))
	for i, v := range videos {
		out[i] = NewVideoView(s, v)
	}
	return out
}

// FormatDuration renders d as m:ss, or h:mm:ss past an hour
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return domain.Video{Duration: d}.FormattedDuration()
}

// FormatCount abbreviates large counts: 950, 1.2K, 3M
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000_000:
		return abbreviate(n, 1_000_000_000, "B")
	case n >= 1_000_000:
		return abbreviate(n, 1_000_000, "M")
	case n >= 1_000:
		return abbreviate(n, 1_000, "K")
	default:
		return strconv.Itoa(n)
	}
}

func abbreviate(n, unit int, suffix string) string {
	// One decimal, truncated so 1999 reads 1.9K rather than 2.0K
	tenths := n / (unit / 10)
	whole, frac := tenths/10, tenths%10
	if frac == 0 || whole >= 100 {
		return strconv.Itoa(whole) + suffix
	}
	return strconv.Itoa(whole) + "." + strconv.Itoa(frac) + suffix
}

// FormatDate renders a timestamp as "2 Jan 2006". The zero time is blank.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}
