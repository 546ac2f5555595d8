package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/view"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog",
		Long:  "Authenticate with the blog API and store the session in the config file",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			var err error

			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username, err = promptLine(reader, cmd.OutOrStdout(), "Username: ")
				if err != nil {
					return err
				}
			}

			if username == "" {
				return ErrUsernameRequired
			}

			if password == "" {
				password, err = promptPassword(cmd.InOrStdin(), reader, cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			response, err := a.session.Login(ctx, username, password)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", a.sanitizer.Text(a.session.User().Username))

			if response.ExpiresAt != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session expires %s\n",
					response.ExpiresAt.Local().Format(constants.DateTimeFormat))
			}

			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username for authentication")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for authentication")

	return cmd
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	_, _ = io.WriteString(out, prompt)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo from a terminal and falls back to a
// plain line read for pipes.
func promptPassword(in io.Reader, reader *bufio.Reader, out io.Writer) (string, error) {
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return promptLine(reader, out, "Password: ")
	}

	_, _ = io.WriteString(out, "Password: ")

	password, err := term.ReadPassword(int(file.Fd()))

	_, _ = io.WriteString(out, "\n")

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(password), nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the blog",
		Long:  "Forget the stored session and tell the server to invalidate it",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if !a.session.Authenticated() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")

				return nil
			}

			a.session.Logout(ctx)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		}),
	}
}

type whoamiOutput struct {
	Authenticated bool        `json:"authenticated"        yaml:"authenticated"`
	User          *blog.User  `json:"user,omitempty"       yaml:"user,omitempty"`
	ExpiresAt     string      `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Links         []view.Link `json:"links"                yaml:"links"`
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Long:  "Show the current session and the navigation it unlocks. The server is asked to confirm the session unless --offline is set",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if a.session.Authenticated() && !offline {
				err := a.session.Refresh(ctx)
				if err != nil && !blog.IsUnauthorized(err) {
					return err
				}
			}

			nav := view.NewNav(a.session)
			defer nav.Close()

			out := whoamiOutput{
				Authenticated: a.session.Authenticated(),
				User:          a.session.User(),
				Links:         nav.Links(),
			}

			if out.Authenticated && a.config.TokenExpiresAt != nil {
				out.ExpiresAt = a.config.TokenExpiresAt.Local().Format(constants.DateTimeFormat)
			}

			renderer := &OutputRenderer[whoamiOutput]{RenderTable: a.renderWhoamiTable}

			return renderer.Render(cmd.OutOrStdout(), out, outputFormat())
		}),
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "use the stored session without asking the server")

	return cmd
}

func (a *app) renderWhoamiTable(w io.Writer, out whoamiOutput) error {
	table := newTable(w, "Property", "Value")

	if out.User == nil {
		_ = table.Append([]string{"User", "(not logged in)"})
	} else {
		_ = table.Append([]string{"User", a.sanitizer.Text(out.User.Username)})
		_ = table.Append([]string{"ID", out.User.ID})
	}

	if out.ExpiresAt != "" {
		_ = table.Append([]string{"Expires", out.ExpiresAt})
	}

	labels := make([]string, 0, len(out.Links))
	for _, link := range out.Links {
		labels = append(labels, link.Label)
	}

	_ = table.Append([]string{"Navigation", strings.Join(labels, " | ")})

	return renderTable(table)
}
