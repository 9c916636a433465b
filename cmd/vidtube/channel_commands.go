package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/selector"
)

func newChannelCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newChannelCommand(ctx),
		newSubscriptionsCommand(ctx),
		newSubscribersCommand(ctx),
		newSubscribeCommand(ctx),
	}
}

func newChannelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channel <username>",
		Short: "Show a channel profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				ch, err := a.Session.FetchChannel(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return printChannels(cmd, true, []domain.Channel{*ch})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s (@%s)\n", ch.FullName, ch.Username)
				fmt.Fprintf(w, "%s subscribers · subscribed to %s\n",
					selector.FormatCount(ch.SubscribersCount), selector.FormatCount(ch.SubscribedToCount))
				if ch.IsSubscribed {
					fmt.Fprintln(w, "You are subscribed")
				}
				return nil
			})
		},
	}
}

func newSubscriptionsCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List channels you (or --user) subscribe to",
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
				if _, err := a.Subscriptions.FetchSubscribedChannels(c, id); err != nil {
					return err
				}
				return printChannels(cmd, ctx.jsonOutput(), a.SubscriptionQueries.SubscribedChannels())
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Subscriber user id")
	return cmd
}

func newSubscribersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribers <channel-id>",
		Short: "List the subscribers of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if _, err := a.Subscriptions.FetchSubscribers(c, args[0]); err != nil {
					return err
				}
				return printChannels(cmd, ctx.jsonOutput(), a.SubscriptionQueries.Subscribers())
			})
		},
	}
}

func newSubscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <channel-id>",
		Short: "Toggle your subscription to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				st, err := a.Subscriptions.ToggleSubscription(c, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"channel_id": st.ChannelID, "subscribed": st.Subscribed})
				}
				if st.Subscribed {
					fmt.Fprintln(cmd.OutOrStdout(), "★ Subscribed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Unsubscribed")
				}
				return nil
			})
		},
	}
}
