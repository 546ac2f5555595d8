package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/view"
)

// NewPostsCommand creates the posts command group.
func NewPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post"},
		Short:   "Manage blog posts",
		Long:    "List, show, create, edit and delete blog posts",
	}

	cmd.AddCommand(newPostsListCommand())
	cmd.AddCommand(newPostsShowCommand())
	cmd.AddCommand(newPostsDeleteCommand())
	cmd.AddCommand(newPostsCreateCommand())
	cmd.AddCommand(newPostsEditCommand())

	return cmd
}

type listFlags struct {
	page     int
	perPage  int
	category string
	search   string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", constants.FirstPage, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "posts per page (default from config, else 10)")
	cmd.Flags().StringVar(&f.category, "category", "", "filter by category id or name")
	cmd.Flags().StringVar(&f.search, "search", "", "filter by search term")
}

// loadList builds a post list for the flags and fetches it.
func (f *listFlags) loadList(ctx context.Context, a *app) (*view.PostList, error) {
	query := view.Query{Page: f.page, Search: f.search}

	if f.category != "" {
		category, err := a.resolveCategory(ctx, f.category)
		if err != nil {
			return nil, err
		}

		query.Category = category.ID
	}

	pageSize := f.perPage
	if pageSize <= 0 {
		pageSize = a.pageSize()
	}

	list := view.NewPostList(a.client, view.ListOptions{
		PageSize: pageSize,
		Query:    query,
		Logger:   a.logger,
	})

	err := list.Load(ctx)
	if err != nil {
		return nil, err
	}

	return list, nil
}

type postListOutput struct {
	Page       int                 `json:"page"        yaml:"page"`
	TotalPages int                 `json:"total_pages" yaml:"total_pages"`
	Posts      []postRow           `json:"posts"       yaml:"posts"`
	Pages      []view.PageSelector `json:"pages"       yaml:"pages"`
}

type postRow struct {
	ID       string `json:"id"       yaml:"id"`
	Title    string `json:"title"    yaml:"title"`
	Category string `json:"category" yaml:"category"`
	Created  string `json:"created"  yaml:"created"`
	Excerpt  string `json:"excerpt"  yaml:"excerpt"`
}

func (a *app) postListOutput(state view.ListState) postListOutput {
	out := postListOutput{
		Page:       state.Query.Page,
		TotalPages: state.TotalPages,
		Posts:      make([]postRow, 0, len(state.Posts)),
		Pages:      state.PageSelectors(),
	}

	for _, post := range state.Posts {
		out.Posts = append(out.Posts, postRow{
			ID:       post.ID,
			Title:    a.sanitizer.Text(post.Title),
			Category: a.sanitizer.Text(post.Category.Name),
			Created:  post.CreatedAt.Local().Format(constants.DateFormat),
			Excerpt:  a.sanitizer.Excerpt(post.Content, constants.ExcerptLength),
		})
	}

	return out
}

func renderPostListTable(w io.Writer, out postListOutput) error {
	if len(out.Posts) == 0 {
		_, _ = fmt.Fprintln(w, "No posts found")

		return nil
	}

	table := newTable(w, "ID", "Title", "Category", "Created", "Excerpt")
	for _, row := range out.Posts {
		_ = table.Append([]string{row.ID, row.Title, row.Category, row.Created, row.Excerpt})
	}

	err := renderTable(table)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Pages: %s\n", formatPageSelectors(out.Pages))

	return nil
}

// formatPageSelectors renders "1 [2] 3", with the current page bracketed.
func formatPageSelectors(selectors []view.PageSelector) string {
	parts := make([]string, 0, len(selectors))

	for _, selector := range selectors {
		if selector.Disabled {
			parts = append(parts, "["+selector.Label+"]")
		} else {
			parts = append(parts, selector.Label)
		}
	}

	return strings.Join(parts, " ")
}

func newPostsListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Long:  "List one page of posts, optionally filtered by category or search term",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			list, err := flags.loadList(ctx, a)
			if err != nil {
				return err
			}

			renderer := &OutputRenderer[postListOutput]{RenderTable: renderPostListTable}

			return renderer.Render(cmd.OutOrStdout(), a.postListOutput(list.State()), outputFormat())
		}),
	}

	flags.register(cmd)

	return cmd
}

type postDetailOutput struct {
	Status           string         `json:"status"                       yaml:"status"`
	Post             *blog.Post     `json:"post"                         yaml:"post"`
	FeaturedImageURL string         `json:"featured_image_url,omitempty" yaml:"featured_image_url,omitempty"`
	Comments         []blog.Comment `json:"comments"                     yaml:"comments"`
	CanComment       bool           `json:"can_comment"                  yaml:"can_comment"`
}

func (a *app) postDetailOutput(state view.DetailState) postDetailOutput {
	return postDetailOutput{
		Status:           state.Status.String(),
		Post:             state.Post,
		FeaturedImageURL: state.FeaturedImageURL,
		Comments:         state.Comments,
		CanComment:       state.CanComment,
	}
}

func (a *app) renderPostDetailTable(w io.Writer, out postDetailOutput) error {
	post := out.Post

	table := newTable(w, "Property", "Value")
	_ = table.Append([]string{"ID", post.ID})
	_ = table.Append([]string{"Title", a.sanitizer.Text(post.Title)})
	_ = table.Append([]string{"Category", a.sanitizer.Text(post.Category.Name)})
	_ = table.Append([]string{"Created", post.CreatedAt.Local().Format(constants.DateTimeFormat)})

	if out.FeaturedImageURL != "" {
		_ = table.Append([]string{"Image", out.FeaturedImageURL})
	}

	err := renderTable(table)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%s\n\n", a.sanitizer.Text(post.Content))

	return a.renderComments(w, out.Comments, out.CanComment, post.ID)
}

func (a *app) renderComments(w io.Writer, comments []blog.Comment, canComment bool, postID string) error {
	_, _ = fmt.Fprintf(w, "%s (%d)\n", label("comments"), len(comments))

	if len(comments) > 0 {
		table := newTable(w, "Author", "Date", "Comment")
		for _, comment := range comments {
			_ = table.Append([]string{
				a.sanitizer.Text(comment.Author),
				comment.CreatedAt.Local().Format(constants.DateTimeFormat),
				a.sanitizer.Text(comment.Content),
			})
		}

		err := renderTable(table)
		if err != nil {
			return err
		}
	}

	if canComment {
		_, _ = fmt.Fprintf(w, "\nAdd a comment: blogctl comments add %s \"text\"\n", postID)
	}

	return nil
}

// loadDetail builds a detail view for id and fetches it.
func (a *app) loadDetail(ctx context.Context, id string) (*view.PostDetail, error) {
	detail := view.NewPostDetail(a.client, a.session, a.logger)

	err := detail.Load(ctx, id)
	if err != nil {
		detail.Close()

		return nil, err
	}

	return detail, nil
}

func newPostsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show POST_ID",
		Short: "Show a post",
		Long:  "Display a post with its featured image URL and comments",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			detail, err := a.loadDetail(ctx, args[0])
			if err != nil {
				return err
			}
			defer detail.Close()

			renderer := &OutputRenderer[postDetailOutput]{RenderTable: a.renderPostDetailTable}

			return renderer.Render(cmd.OutOrStdout(), a.postDetailOutput(detail.State()), outputFormat())
		}),
	}
}

func newPostsDeleteCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "delete POST_ID",
		Short: "Delete a post",
		Long: `Delete a post and print the page of the list it was on. The list
starts at --page and the other pages of the filtered list are searched
when the post is not there.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			list, err := flags.loadList(ctx, a)
			if err != nil {
				return err
			}

			err = showPost(ctx, list, args[0])
			if err != nil {
				return err
			}

			result := list.Delete(ctx, args[0])

			renderer := &OutputRenderer[postListOutput]{RenderTable: renderPostListTable}

			err = renderer.Render(cmd.OutOrStdout(), a.postListOutput(list.State()), outputFormat())
			if err != nil {
				return err
			}

			if !result.OK() {
				return fmt.Errorf("%w: %s", ErrDeleteFailed, blog.ErrorMessage(result.Err()))
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Deleted post %s\n", args[0])

			return nil
		}),
	}

	flags.register(cmd)

	return cmd
}

// showPost moves list to the page holding id. The list goes back to its
// starting page when no page holds the post.
func showPost(ctx context.Context, list *view.PostList, id string) error {
	state := list.State()
	if listed(state.Posts, id) {
		return nil
	}

	start := state.Query.Page

	for page := 1; page <= state.TotalPages; page++ {
		if page == start {
			continue
		}

		err := list.SetPage(ctx, page)
		if err != nil {
			return err
		}

		if listed(list.State().Posts, id) {
			return nil
		}
	}

	return list.SetPage(ctx, start)
}

func listed(posts []blog.Post, id string) bool {
	return slices.ContainsFunc(posts, func(post blog.Post) bool {
		return post.ID == id
	})
}

type postFlags struct {
	title    string
	content  string
	category string
	image    string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "post title")
	cmd.Flags().StringVar(&f.content, "content", "", "post content")
	cmd.Flags().StringVar(&f.category, "category", "", "category id or name")
	cmd.Flags().StringVar(&f.image, "image", "", "featured image path")
}

func newPostsCreateCommand() *cobra.Command {
	flags := &postFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Long:  "Publish a new post as the logged-in user",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			err := a.requireLogin()
			if err != nil {
				return err
			}

			required := []struct{ name, value string }{
				{"title", flags.title},
				{"content", flags.content},
				{"category", flags.category},
			}
			for _, flag := range required {
				if strings.TrimSpace(flag.value) == "" {
					return fmt.Errorf("%w: --%s", ErrRequiredFlag, flag.name)
				}
			}

			category, err := a.resolveCategory(ctx, flags.category)
			if err != nil {
				return err
			}

			post, err := a.client.Posts().Create(ctx, &blog.PostCreateRequest{
				Title:         flags.title,
				Content:       flags.content,
				Category:      category.ID,
				FeaturedImage: flags.image,
			})
			if err != nil {
				return err
			}

			return a.renderPost(cmd, post)
		}),
	}

	flags.register(cmd)

	return cmd
}

func newPostsEditCommand() *cobra.Command {
	flags := &postFlags{}

	cmd := &cobra.Command{
		Use:   "edit POST_ID",
		Short: "Edit a post",
		Long:  "Change the fields of a post given by flags; other fields are left as they are",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			err := a.requireLogin()
			if err != nil {
				return err
			}

			request := &blog.PostUpdateRequest{}
			changed := false

			set := func(name string, value string, target **string) {
				if cmd.Flags().Changed(name) {
					v := value
					*target = &v
					changed = true
				}
			}

			set("title", flags.title, &request.Title)
			set("content", flags.content, &request.Content)
			set("image", flags.image, &request.FeaturedImage)

			if cmd.Flags().Changed("category") {
				category, err := a.resolveCategory(ctx, flags.category)
				if err != nil {
					return err
				}

				request.Category = &category.ID
				changed = true
			}

			if !changed {
				return ErrNothingToUpdate
			}

			post, err := a.client.Posts().Update(ctx, args[0], request)
			if err != nil {
				return err
			}

			return a.renderPost(cmd, post)
		}),
	}

	flags.register(cmd)

	return cmd
}

func (a *app) renderPost(cmd *cobra.Command, post *blog.Post) error {
	out := postDetailOutput{
		Status:           view.StatusReady.String(),
		Post:             post,
		FeaturedImageURL: a.client.FeaturedImageURL(post),
		Comments:         []blog.Comment{},
	}

	renderer := &OutputRenderer[postDetailOutput]{
		RenderTable: func(w io.Writer, out postDetailOutput) error {
			table := newTable(w, "Property", "Value")
			_ = table.Append([]string{"ID", out.Post.ID})
			_ = table.Append([]string{"Title", a.sanitizer.Text(out.Post.Title)})
			_ = table.Append([]string{"Category", a.sanitizer.Text(out.Post.Category.Name)})
			_ = table.Append([]string{"Image", formatConfigValue(out.FeaturedImageURL)})
			_ = table.Append([]string{"Created", out.Post.CreatedAt.Local().Format(constants.DateTimeFormat)})

			return renderTable(table)
		},
	}

	return renderer.Render(cmd.OutOrStdout(), out, outputFormat())
}
