package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/selector"
)

func newVideoCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newVideosCommand(ctx),
		newVideoCommand(ctx),
		newWatchCommand(ctx),
		newHistoryCommand(ctx),
	}
}

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var q domain.ListQuery

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List published videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				p, err := a.Videos.FetchVideos(c, q)
				if err != nil {
					return err
				}
				return printVideos(cmd, ctx.jsonOutput(), a.SessionQueries.Session(), p.Docs, pageCursor(p))
			})
		},
	}

	cmd.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "Videos per page (default from config)")
	cmd.Flags().StringVarP(&q.Query, "query", "q", "", "Search text")
	cmd.Flags().StringVar(&q.SortBy, "sort-by", "createdAt", "Sort field")
	cmd.Flags().StringVar(&q.SortType, "sort", domain.SortDesc, "Sort direction (asc or desc)")
	cmd.Flags().StringVar(&q.UserID, "user", "", "Only videos uploaded by this user id")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "video <video-id>",
		Short: "Show one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				v, err := a.Videos.FetchVideo(c, args[0])
				if err != nil {
					return err
				}
				view := selector.NewVideoView(a.SessionQueries.Session(), *v)
				if ctx.jsonOutput() {
					return writeJSON(cmd, newVideoOutput(view))
				}

				w := cmd.OutOrStdout()
				fmt.Fprintln(w, view.Title)
				fmt.Fprintf(w, "by %s · %s views · %s likes · %s\n", view.Owner.Username, view.Views, view.Likes, view.Duration)
				if view.Uploaded != "" {
					fmt.Fprintf(w, "Uploaded %s\n", view.Uploaded)
				}
				if view.Description != "" {
					fmt.Fprintf(w, "\n%s\n", view.Description)
				}
				return nil
			})
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <video-id>",
		Short: "Play a video in an external player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				v, err := a.Videos.FetchVideo(c, args[0])
				if err != nil {
					return err
				}
				if err := a.Launcher.Launch(v.VideoURL); err != nil {
					return fmt.Errorf("failed to start player: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "▶ %s\n", v.Title)

				if a.SessionQueries.IsAuthenticated() {
					if err := a.Session.AddToWatchHistory(c, v.ID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: not added to watch history: %s\n", describeError(err))
					}
				}
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your watch history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				if _, err := a.Session.FetchWatchHistory(c); err != nil {
					return err
				}
				return printVideos(cmd, ctx.jsonOutput(), a.SessionQueries.Session(), a.SessionQueries.WatchHistory(), nil)
			})
		},
	}
}
