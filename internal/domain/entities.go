package domain

import (
	"fmt"
	"time"
)

// MaxPostLength is the upper bound on post content, counted in characters.
const MaxPostLength = 200

// AuthStatus describes the state of the current session
type AuthStatus int

const (
	AuthAnonymous AuthStatus = iota
	AuthAuthenticated
	AuthExpired
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Owner is the embedded author reference carried by videos, posts, comments and playlists
type Owner struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
}

// User is an account on the platform
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	CreatedAt     time.Time
}

// Owner returns the embedded reference form of the user
func (u User) Owner() Owner {
	return Owner{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// Session is the signed-in identity. At most one exists per App.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
	Status       AuthStatus
}

// IsAuthenticated reports whether the session carries a usable access token
func (s Session) IsAuthenticated() bool {
	return s.Status == AuthAuthenticated && s.AccessToken != ""
}

// Channel is a user's public profile as seen by the viewer
type Channel struct {
	ID                string
	Username          string
	FullName          string
	AvatarURL         string
	CoverImageURL     string
	SubscribersCount  int
	SubscribedToCount int
	IsSubscribed      bool // relative to the viewer
	SubscribedAt      time.Time
}

// Video is an uploaded video
type Video struct {
	ID           string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     time.Duration
	Owner        Owner
	LikesCount   int
	IsLiked      bool
	Views        int
	IsPublished  bool
	CreatedAt    time.Time
}

// FormattedDuration returns the duration as m:ss, or h:mm:ss past an hour
func (v Video) FormattedDuration() string {
	total := int(v.Duration.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Post is a short text post on a channel
type Post struct {
	ID         string
	Content    string
	Owner      Owner
	LikesCount int
	IsLiked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Comment is a comment on a video
type Comment struct {
	ID         string
	Content    string
	VideoID    string
	Owner      Owner
	LikesCount int
	IsLiked    bool
	CreatedAt  time.Time
}

// Playlist is an ordered collection of videos. Videos are referenced by id;
// the video entities themselves live in the video table.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Owner       Owner
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contains reports whether the playlist references the video
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// PlaylistWithVideos is a playlist as returned by the server, with whatever
// video objects it embedded.
type PlaylistWithVideos struct {
	Playlist
	Videos []Video
}

// Page is one page of a paginated list
type Page[T any] struct {
	Docs       []T
	Page       int
	TotalPages int
	Limit      int
	TotalDocs  int
}

// HasMore reports whether pages after this one exist
func (p Page[T]) HasMore() bool {
	return p.Page < p.TotalPages
}

// Sort directions accepted by the video list endpoint
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListQuery filters and pages the video list
type ListQuery struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

// SameFilter reports whether two queries select the same result set,
// ignoring which page is requested.
func (q ListQuery) SameFilter(o ListQuery) bool {
	return q.Query == o.Query && q.SortBy == o.SortBy && q.SortType == o.SortType &&
		q.UserID == o.UserID && q.Limit == o.Limit
}

// LikeKind selects the like target
type LikeKind int

const (
	LikeVideo LikeKind = iota
	LikeComment
	LikePost
)

// PathSegment returns the short form used by the toggle endpoint
func (k LikeKind) PathSegment() string {
	switch k {
	case LikeComment:
		return "c"
	case LikePost:
		return "p"
	default:
		return "v"
	}
}

func (k LikeKind) String() string {
	switch k {
	case LikeComment:
		return "comment"
	case LikePost:
		return "post"
	default:
		return "video"
	}
}

// LikeState is the server's view of a like relation after a toggle.
// CountKnown is false when the server did not report a count.
type LikeState struct {
	Kind       LikeKind
	TargetID   string
	Liked      bool
	LikesCount int
	CountKnown bool
}

// SubscriptionState is the server's view of a subscription after a toggle
type SubscriptionState struct {
	ChannelID        string
	Subscribed       bool
	SubscribersCount int
	CountKnown       bool
}

// RegisterInput is the data needed to create an account. Image paths are
// optional local files uploaded with the form.
type RegisterInput struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// ProfileUpdate holds the editable account fields
type ProfileUpdate struct {
	FullName string
	Email    string
}

// VideoUpdate holds the editable video fields
type VideoUpdate struct {
	Title       string
	Description string
}
