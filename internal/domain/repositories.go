package domain

import (
	"context"
)

// UserRepository provides account, session and channel operations
type UserRepository interface {
	// Register creates an account. It does not sign in.
	Register(ctx context.Context, in RegisterInput) (*User, error)

	// Login exchanges credentials for a session
	Login(ctx context.Context, email, password string) (*Session, error)

	// Logout ends the session on the server
	Logout(ctx context.Context) error

	// RefreshToken rotates the token pair
	RefreshToken(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)

	// CurrentUser returns the user the access token belongs to
	CurrentUser(ctx context.Context) (*User, error)

	UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error)

	// Channel returns a channel profile relative to the viewer
	Channel(ctx context.Context, username string) (*Channel, error)

	WatchHistory(ctx context.Context) ([]Video, error)
	AddToWatchHistory(ctx context.Context, videoID string) error
}

// VideoRepository provides the video catalogue
type VideoRepository interface {
	ListVideos(ctx context.Context, q ListQuery) (Page[Video], error)
	GetVideo(ctx context.Context, videoID string) (*Video, error)
	UpdateVideo(ctx context.Context, videoID string, in VideoUpdate) (*Video, error)
	DeleteVideo(ctx context.Context, videoID string) error

	// TogglePublish flips publication and returns the new state
	TogglePublish(ctx context.Context, videoID string) (bool, error)
}

// PostRepository provides channel posts
type PostRepository interface {
	CreatePost(ctx context.Context, content string) (*Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	ListUserPosts(ctx context.Context, userID string) ([]Post, error)
	UpdatePost(ctx context.Context, postID, content string) (*Post, error)
	DeletePost(ctx context.Context, postID string) error
}

// CommentRepository provides paginated video comments
type CommentRepository interface {
	ListComments(ctx context.Context, videoID string, page, limit int) (Page[Comment], error)
	AddComment(ctx context.Context, videoID, content string) (*Comment, error)
	UpdateComment(ctx context.Context, commentID, content string) (*Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// LikeRepository toggles likes and lists liked videos
type LikeRepository interface {
	ToggleLike(ctx context.Context, kind LikeKind, targetID string) (LikeState, error)
	LikedVideos(ctx context.Context) ([]Video, error)
}

// PlaylistRepository provides playlist management operations
type PlaylistRepository interface {
	UserPlaylists(ctx context.Context, userID string) ([]PlaylistWithVideos, error)
	GetPlaylist(ctx context.Context, playlistID string) (*PlaylistWithVideos, error)
	CreatePlaylist(ctx context.Context, name, description string) (*PlaylistWithVideos, error)
	UpdatePlaylist(ctx context.Context, playlistID, name, description string) (*PlaylistWithVideos, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
	AddVideo(ctx context.Context, playlistID, videoID string) (*PlaylistWithVideos, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string) (*PlaylistWithVideos, error)
}

// SubscriptionRepository toggles and lists channel subscriptions
type SubscriptionRepository interface {
	ToggleSubscription(ctx context.Context, channelID string) (SubscriptionState, error)

	// SubscribedChannels lists the channels a user subscribes to
	SubscribedChannels(ctx context.Context, subscriberID string) ([]Channel, error)

	// Subscribers lists the users subscribed to a channel
	Subscribers(ctx context.Context, channelID string) ([]Channel, error)
}
