package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/request"
)

const requestTimeout = 30 * time.Second

// runCmd wraps a slice operation. Results reach the model through the
// change feed; only failures and status text come back as messages.
// Superseded requests are silent.
func runCmd(what string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		status, err := fn(ctx)
		if err != nil {
			if errors.Is(err, request.ErrStale) {
				return nil
			}
			return ErrMsg{Err: err, Context: what}
		}
		if status == "" {
			return nil
		}
		return StatusMsg(status)
	}
}

// FetchSectionCmd loads the list behind a sidebar section
func FetchSectionCmd(a *app.App, s Section) tea.Cmd {
	return runCmd("loading "+s.String(), func(ctx context.Context) (string, error) {
		var err error
		switch s {
		case SectionVideos:
			_, err = a.Videos.FetchVideos(ctx, domain.ListQuery{Page: 1, SortBy: "createdAt", SortType: domain.SortDesc})
		case SectionLiked:
			_, err = a.Likes.FetchLikedVideos(ctx)
		case SectionHistory:
			_, err = a.Session.FetchWatchHistory(ctx)
		case SectionPlaylists:
			_, err = a.Playlists.FetchUserPlaylists(ctx, a.SessionQueries.UserID())
		case SectionSubscriptions:
			_, err = a.Subscriptions.FetchSubscribedChannels(ctx, a.SessionQueries.UserID())
		case SectionPosts:
			_, err = a.Posts.FetchPosts(ctx)
		}
		return "", err
	})
}

// LoadMoreVideosCmd appends the next page of the video listing
func LoadMoreVideosCmd(a *app.App) tea.Cmd {
	return runCmd("loading more videos", func(ctx context.Context) (string, error) {
		_, err := a.Videos.LoadMore(ctx)
		return "", err
	})
}

// FetchCommentsCmd loads the first comment page of a video
func FetchCommentsCmd(a *app.App, videoID string) tea.Cmd {
	return runCmd("loading comments", func(ctx context.Context) (string, error) {
		_, err := a.Comments.FetchComments(ctx, videoID, 1)
		return "", err
	})
}

func LoadMoreCommentsCmd(a *app.App) tea.Cmd {
	return runCmd("loading more comments", func(ctx context.Context) (string, error) {
		_, err := a.Comments.LoadMore(ctx)
		return "", err
	})
}

// FetchPlaylistCmd loads a playlist with its videos
func FetchPlaylistCmd(a *app.App, playlistID string) tea.Cmd {
	return runCmd("loading playlist", func(ctx context.Context) (string, error) {
		_, err := a.Playlists.FetchPlaylist(ctx, playlistID)
		return "", err
	})
}

// ToggleLikeCmd flips the viewer's like on a video, comment or post
func ToggleLikeCmd(a *app.App, kind domain.LikeKind, id string) tea.Cmd {
	return runCmd("toggling like", func(ctx context.Context) (string, error) {
		var st domain.LikeState
		var err error
		switch kind {
		case domain.LikeComment:
			st, err = a.Likes.ToggleCommentLike(ctx, id)
		case domain.LikePost:
			st, err = a.Likes.TogglePostLike(ctx, id)
		default:
			st, err = a.Likes.ToggleVideoLike(ctx, id)
		}
		if err != nil {
			return "", err
		}
		if st.Liked {
			return "Liked " + kind.String(), nil
		}
		return "Removed like", nil
	})
}

// ToggleSubscriptionCmd flips the viewer's subscription to a channel
func ToggleSubscriptionCmd(a *app.App, channelID string) tea.Cmd {
	return runCmd("toggling subscription", func(ctx context.Context) (string, error) {
		st, err := a.Subscriptions.ToggleSubscription(ctx, channelID)
		if err != nil {
			return "", err
		}
		if st.Subscribed {
			return "Subscribed", nil
		}
		return "Unsubscribed", nil
	})
}

// PlayCmd opens the video in the external player and records the view
func PlayCmd(a *app.App, v domain.Video) tea.Cmd {
	return func() tea.Msg {
		if err := a.Launcher.Launch(v.VideoURL); err != nil {
			return ErrMsg{Err: err, Context: "starting playback"}
		}
		if a.SessionQueries.IsAuthenticated() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			// Playback already started; a history failure is only logged by the slice
			_ = a.Session.AddToWatchHistory(ctx, v.ID)
		}
		return PlaybackStartedMsg{Video: v}
	}
}

func AddCommentCmd(a *app.App, videoID, content string) tea.Cmd {
	return runCmd("adding comment", func(ctx context.Context) (string, error) {
		_, err := a.Comments.AddComment(ctx, videoID, content)
		return "Comment added", err
	})
}

func CreatePostCmd(a *app.App, content string) tea.Cmd {
	return runCmd("creating post", func(ctx context.Context) (string, error) {
		_, err := a.Posts.CreatePost(ctx, content)
		return "Post published", err
	})
}

func DeleteCommentCmd(a *app.App, commentID string) tea.Cmd {
	return runCmd("deleting comment", func(ctx context.Context) (string, error) {
		return "Comment deleted", a.Comments.DeleteComment(ctx, commentID)
	})
}

func DeletePostCmd(a *app.App, postID string) tea.Cmd {
	return runCmd("deleting post", func(ctx context.Context) (string, error) {
		return "Post deleted", a.Posts.DeletePost(ctx, postID)
	})
}

// TickCmd schedules the next spinner frame
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
