package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/vidtube/internal/app"
	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/selector"
)

func newAuthCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newLoginCommand(ctx),
		newLogoutCommand(ctx),
		newWhoamiCommand(ctx),
		newRegisterCommand(ctx),
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if strings.TrimSpace(email) == "" {
				v, err := prompt(cmd, in, "Email: ")
				if err != nil {
					return err
				}
				email = v
			}
			password, err := readPassword(cmd, in, "Password: ")
			if err != nil {
				return err
			}

			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				sess, err := a.Session.Login(c, email, password)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", sess.User.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if !a.SessionQueries.IsAuthenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				if err := a.Session.Logout(c); err != nil {
					return fmt.Errorf("logout failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				if err := requireSession(a); err != nil {
					return err
				}
				u, err := a.Session.FetchCurrentUser(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						ID       string `json:"id"`
						Username string `json:"username"`
						FullName string `json:"full_name"`
						Email    string `json:"email"`
						Joined   string `json:"joined,omitempty"`
					}{u.ID, u.Username, u.FullName, u.Email, selector.FormatDate(u.CreatedAt)})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%s (@%s)\n", u.FullName, u.Username)
				fmt.Fprintf(w, "Email: %s\n", u.Email)
				if joined := selector.FormatDate(u.CreatedAt); joined != "" {
					fmt.Fprintf(w, "Joined: %s\n", joined)
				}
				return nil
			})
		},
	}
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var in domain.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, bufio.NewReader(cmd.InOrStdin()), "Password: ")
			if err != nil {
				return err
			}
			in.Password = password

			return ctx.withApp(cmd, app.Options{}, func(c context.Context, a *app.App) error {
				u, err := a.Session.Register(c, in)
				if err != nil {
					return fmt.Errorf("registration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created @%s. Run `vidtube login` to sign in.\n", u.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Username, "username", "", "Username")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email")
	cmd.Flags().StringVar(&in.AvatarPath, "avatar", "", "Avatar image file")
	cmd.Flags().StringVar(&in.CoverImagePath, "cover", "", "Cover image file")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword hides input on a terminal and reads a plain line otherwise
func readPassword(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(cmd.OutOrStdout(), label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return prompt(cmd, in, label)
}
