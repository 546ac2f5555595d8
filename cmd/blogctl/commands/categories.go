package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// NewCategoriesCommand creates the categories command group.
func NewCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List post categories",
		Long:    "List the categories posts can be filed under",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Long:  "List all categories with their ids",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			categories, err := a.client.Categories().List(ctx)
			if err != nil {
				return err
			}

			renderer := &OutputRenderer[[]blog.Category]{RenderTable: a.renderCategoriesTable}

			return renderer.Render(cmd.OutOrStdout(), categories, outputFormat())
		}),
	})

	return cmd
}

func (a *app) renderCategoriesTable(w io.Writer, categories []blog.Category) error {
	table := newTable(w, "ID", "Name")
	for _, category := range categories {
		_ = table.Append([]string{category.ID, a.sanitizer.Text(category.Name)})
	}

	return renderTable(table)
}
