package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// NewCommentsCommand creates the comments command group.
func NewCommentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Manage post comments",
		Long:    "List the comments on a post and add new ones",
	}

	cmd.AddCommand(newCommentsListCommand())
	cmd.AddCommand(newCommentsAddCommand())

	return cmd
}

func newCommentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list POST_ID",
		Short: "List comments on a post",
		Long:  "List the comments on a post, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			comments, err := a.client.Comments().List(ctx, args[0])
			if err != nil {
				return err
			}

			renderer := &OutputRenderer[[]blog.Comment]{
				RenderTable: func(w io.Writer, comments []blog.Comment) error {
					return a.renderComments(w, comments, a.session.Authenticated(), args[0])
				},
			}

			return renderer.Render(cmd.OutOrStdout(), comments, outputFormat())
		}),
	}
}

func newCommentsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add POST_ID TEXT...",
		Short: "Comment on a post",
		Long:  "Add a comment to a post as the logged-in user",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			detail, err := a.loadDetail(ctx, args[0])
			if err != nil {
				return err
			}
			defer detail.Close()

			if !detail.CanComment() {
				return ErrLoginRequired
			}

			detail.SetDraft(strings.Join(args[1:], " "))

			result := detail.SubmitComment(ctx)
			if !result.OK() {
				return fmt.Errorf("adding comment: %w", result.Err())
			}

			state := detail.State()

			renderer := &OutputRenderer[[]blog.Comment]{
				RenderTable: func(w io.Writer, comments []blog.Comment) error {
					return a.renderComments(w, comments, false, args[0])
				},
			}

			return renderer.Render(cmd.OutOrStdout(), state.Comments, outputFormat())
		}),
	}
}
