package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
)

func newCommentsCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "comments <video-id>",
		Short: "List comments on a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				p, err := a.Comments.FetchComments(c, args[0], page)
				if err != nil {
					return err
				}
				return printComments(cmd, ctx.jsonOutput(), a.SessionQueries.Session(), p.Docs, pageCursor(p))
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.AddCommand(newCommentAddCommand(ctx))
	cmd.AddCommand(newCommentDeleteCommand(ctx))
	return cmd
}

func newCommentAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <video-id> <text>",
		Short: "Comment on a video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				cm, err := a.Comments.AddComment(c, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added comment %s\n", cm.ID)
				return nil
			})
		},
	}
}

func newCommentDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				if err := a.Comments.DeleteComment(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Comment deleted")
				return nil
			})
		},
	}
}

func newPostsCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List community posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				var err error
				if userID != "" {
					_, err = a.Posts.FetchUserPosts(c, userID)
				} else {
					_, err = a.Posts.FetchPosts(c)
				}
				if err != nil {
					return err
				}
				return printPosts(cmd, ctx.jsonOutput(), a.SessionQueries.Session(), a.PostQueries.Posts())
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Only posts by this user id")
	return cmd
}

func newPostCommand(ctx *commandContext) *cobra.Command {
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Write or delete community posts",
	}

	postCmd.AddCommand(&cobra.Command{
		Use:   "create <text>",
		Short: fmt.Sprintf("Publish a post (up to %d characters)", domain.MaxPostLength),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				p, err := a.Posts.CreatePost(c, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Published post %s\n", p.ID)
				return nil
			})
		},
	})

	postCmd.AddCommand(&cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				if err := a.Posts.DeletePost(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Post deleted")
				return nil
			})
		},
	})

	return postCmd
}

func newLikeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "like <video|comment|post> <id>",
		Short:     "Toggle your like on a video, comment or post",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"video", "comment", "post"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}

				var st domain.LikeState
				var err error
				switch args[0] {
				case "video":
					st, err = a.Likes.ToggleVideoLike(c, args[1])
				case "comment":
					st, err = a.Likes.ToggleCommentLike(c, args[1])
				case "post":
					st, err = a.Likes.TogglePostLike(c, args[1])
				default:
					return fmt.Errorf("unknown like target %q (want video, comment or post)", args[0])
				}
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"kind": st.Kind.String(), "id": st.TargetID, "liked": st.Liked})
				}
				if st.Liked {
					fmt.Fprintf(cmd.OutOrStdout(), "♥ Liked %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed like from %s\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List videos you liked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				if _, err := a.Likes.FetchLikedVideos(c); err != nil {
					return err
				}
				return printVideos(cmd, ctx.jsonOutput(), a.SessionQueries.Session(), a.LikeQueries.LikedVideos(), nil)
			})
		},
	})
	return cmd
}

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List your (or --user's) playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				id := userID
				if id == "" {
					if err := requireSession(a); err != nil {
						return err
					}
					id = a.SessionQueries.UserID()
				}
				if _, err := a.Playlists.FetchUserPlaylists(c, id); err != nil {
					return err
				}
				return printPlaylists(cmd, ctx.jsonOutput(), a.PlaylistQueries.Playlists())
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Playlist owner user id")
	return cmd
}

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist <playlist-id>",
		Short: "Show a playlist and its videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				p, err := a.Playlists.FetchPlaylist(c, args[0])
				if err != nil {
					return err
				}
				sess := a.SessionQueries.Session()
				videos := a.PlaylistQueries.Videos(p.ID)
				if ctx.jsonOutput() {
					return writeJSON(cmd, playlistOutput{
						ID:          p.ID,
						Name:        p.Name,
						Description: p.Description,
						Videos:      len(p.VideoIDs),
						Items:       videoOutputs(sess, videos),
					})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s (%d videos)\n", p.Name, len(p.VideoIDs))
				if p.Description != "" {
					fmt.Fprintln(w, p.Description)
				}
				return printVideos(cmd, false, sess, videos, nil)
			})
		},
	}

	cmd.AddCommand(newPlaylistCreateCommand(ctx))
	cmd.AddCommand(newPlaylistDeleteCommand(ctx))
	cmd.AddCommand(newPlaylistMemberCommand(ctx, "add", "Add a video to a playlist"))
	cmd.AddCommand(newPlaylistMemberCommand(ctx, "remove", "Remove a video from a playlist"))
	return cmd
}

func newPlaylistCreateCommand(ctx *commandContext) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				p, err := a.Playlists.CreatePlaylist(c, strings.Join(args, " "), description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created playlist %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Playlist description")
	return cmd
}

func newPlaylistDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <playlist-id>",
		Short: "Delete a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				if err := a.Playlists.DeletePlaylist(c, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Playlist deleted")
				return nil
			})
		},
	}
}

func newPlaylistMemberCommand(ctx *commandContext, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <playlist-id> <video-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				var err error
				if action == "add" {
					err = a.Playlists.AddVideo(c, args[0], args[1])
				} else {
					err = a.Playlists.RemoveVideo(c, args[0], args[1])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Playlist updated (%s %s)\n", action, args[1])
				return nil
			})
		},
	}
}
