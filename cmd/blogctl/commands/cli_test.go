package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/blog-client/cmd/blogctl/commands"
	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/view"
)

type listOutput struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Posts      []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Excerpt string `json:"excerpt"`
	} `json:"posts"`
	Pages []view.PageSelector `json:"pages"`
}

type whoami struct {
	Authenticated bool        `json:"authenticated"`
	User          *blog.User  `json:"user"`
	Links         []view.Link `json:"links"`
}

// CLISuite runs blogctl end to end against a fake API. The CLI keeps its
// configuration in viper's global instance, so the suite is not parallel.
type CLISuite struct {
	suite.Suite

	server     *blogtest.Server
	configFile string
	goID       string
	travelID   string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	viper.Reset()
	s.T().Setenv("BLOGCTL_API_URL", "")

	s.server = blogtest.NewServer()
	s.server.AddUser("alice", "secret")
	s.goID = s.server.AddCategory("Go").ID
	s.travelID = s.server.AddCategory("Travel").ID
	s.configFile = filepath.Join(s.T().TempDir(), "config.yml")
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
	viper.Reset()
}

func (s *CLISuite) execute(input string, args ...string) (string, string, error) {
	root := commands.NewRootCommand("1.2.3", "abc123", "2026-01-01")

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--config", s.configFile}, args...))

	err := root.Execute()

	return stdout.String(), stderr.String(), err
}

// run executes blogctl pointed at the fake API.
func (s *CLISuite) run(args ...string) (string, error) {
	stdout, _, err := s.execute("", append([]string{"--api", s.server.APIURL()}, args...)...)

	return stdout, err
}

func (s *CLISuite) decode(out string, target interface{}) {
	s.Require().NoError(json.Unmarshal([]byte(out), target), out)
}

func (s *CLISuite) login() {
	out, err := s.run("login", "-u", "alice", "-p", "secret")
	s.Require().NoError(err)
	s.Contains(out, "Logged in as alice")
}

func (s *CLISuite) addPosts(n int) []blog.Post {
	posts := make([]blog.Post, 0, n)
	for i := range n {
		posts = append(posts, s.server.AddPost(blog.Post{
			Title:    "Post " + string(rune('A'+i)),
			Content:  "<p>Body of <b>post</b></p>",
			Category: blog.CategoryRef{ID: s.goID, Name: "Go"},
		}))
	}

	return posts
}

func (s *CLISuite) TestVersion() {
	out, err := s.run("version", "-o", "json")
	s.Require().NoError(err)

	var info map[string]string
	s.decode(out, &info)
	s.Equal("1.2.3", info["version"])
	s.Equal("abc123", info["commit"])
}

func (s *CLISuite) TestRequiresAPI() {
	_, _, err := s.execute("", "posts", "list")
	s.Require().ErrorIs(err, commands.ErrNoAPIConfigured)
}

func (s *CLISuite) TestLoginWhoamiLogout() {
	out, err := s.run("whoami", "-o", "json")
	s.Require().NoError(err)

	var before whoami
	s.decode(out, &before)
	s.False(before.Authenticated)
	s.Equal([]view.Link{{Label: view.LinkHome, Path: "/"}, {Label: view.LinkLogin, Path: "/login"}}, before.Links)

	s.login()

	out, err = s.run("whoami", "-o", "json")
	s.Require().NoError(err)

	var after whoami
	s.decode(out, &after)
	s.True(after.Authenticated)
	s.Require().NotNil(after.User)
	s.Equal("alice", after.User.Username)
	s.Contains(after.Links, view.Link{Label: view.LinkCreatePost, Path: "/create"})

	out, err = s.run("logout")
	s.Require().NoError(err)
	s.Contains(out, "Logged out")
	s.Equal(1, s.server.RequestCount(http.MethodPost, "/auth/logout"))

	out, err = s.run("whoami", "--offline", "-o", "json")
	s.Require().NoError(err)

	var final whoami
	s.decode(out, &final)
	s.False(final.Authenticated)

	out, err = s.run("logout")
	s.Require().NoError(err)
	s.Contains(out, "Not logged in")
}

func (s *CLISuite) TestLoginPrompts() {
	stdout, _, err := s.execute("alice\nsecret\n", "--api", s.server.APIURL(), "login")
	s.Require().NoError(err)
	s.Contains(stdout, "Username: ")
	s.Contains(stdout, "Password: ")
	s.Contains(stdout, "Logged in as alice")
}

func (s *CLISuite) TestLoginRejected() {
	_, err := s.run("login", "-u", "alice", "-p", "wrong")
	s.Require().Error(err)
	s.True(blog.IsUnauthorized(err))

	out, err := s.run("whoami", "--offline", "-o", "json")
	s.Require().NoError(err)

	var state whoami
	s.decode(out, &state)
	s.False(state.Authenticated)
}

func (s *CLISuite) TestWhoamiDropsRevokedSession() {
	s.login()

	data, err := os.ReadFile(s.configFile)
	s.Require().NoError(err)

	var stored struct {
		Token string `yaml:"token"`
	}
	s.Require().NoError(yaml.Unmarshal(data, &stored))
	s.Require().NotEmpty(stored.Token)

	// Revoke the token behind the CLI's back.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.server.APIURL()+"/auth/logout", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+stored.Token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Require().NoError(resp.Body.Close())

	out, err := s.run("whoami", "-o", "json")
	s.Require().NoError(err)

	var state whoami
	s.decode(out, &state)
	s.False(state.Authenticated)
	s.NotContains(state.Links, view.Link{Label: view.LinkCreatePost, Path: "/create"})
}

func (s *CLISuite) TestExtraHeaders() {
	_, err := s.run("categories", "list", "-H", "X-Tenant: north", "--header", "X-Trace:abc")
	s.Require().NoError(err)

	requests := s.server.Requests()
	s.Require().NotEmpty(requests)
	s.Equal("north", requests[0].Header.Get("X-Tenant"))
	s.Equal("abc", requests[0].Header.Get("X-Trace"))

	_, err = s.run("categories", "list", "-H", "no-colon")
	s.Require().ErrorIs(err, commands.ErrInvalidHeader)
}

func (s *CLISuite) TestPostsListPaginates() {
	s.addPosts(12)

	out, err := s.run("posts", "list", "--page", "2", "-o", "json")
	s.Require().NoError(err)

	var list listOutput
	s.decode(out, &list)
	s.Equal(2, list.Page)
	s.Equal(2, list.TotalPages)
	s.Len(list.Posts, 2)
	s.Require().Len(list.Pages, 2)
	s.False(list.Pages[0].Disabled)
	s.True(list.Pages[1].Disabled)
	s.Equal("Body of post", list.Posts[0].Excerpt)

	out, err = s.run("posts", "list", "--page", "2")
	s.Require().NoError(err)
	s.Contains(out, "Pages: 1 [2]")
}

func (s *CLISuite) TestPostsListPageSizeFromConfig() {
	s.addPosts(3)

	_, err := s.run("config", "set", "page_size", "2")
	s.Require().NoError(err)

	out, err := s.run("posts", "list", "-o", "json")
	s.Require().NoError(err)

	var list listOutput
	s.decode(out, &list)
	s.Equal(2, list.TotalPages)
	s.Len(list.Posts, 2)
}

func (s *CLISuite) TestPostsListFilters() {
	s.addPosts(2)
	s.server.AddPost(blog.Post{
		Title:    "Lisbon trip",
		Content:  "tram 28",
		Category: blog.CategoryRef{ID: s.travelID, Name: "Travel"},
	})

	out, err := s.run("posts", "list", "--category", "travel", "-o", "json")
	s.Require().NoError(err)

	var byCategory listOutput
	s.decode(out, &byCategory)
	s.Require().Len(byCategory.Posts, 1)
	s.Equal("Lisbon trip", byCategory.Posts[0].Title)

	out, err = s.run("posts", "list", "--search", "tram", "-o", "json")
	s.Require().NoError(err)

	var bySearch listOutput
	s.decode(out, &bySearch)
	s.Len(bySearch.Posts, 1)

	_, err = s.run("posts", "list", "--category", "cooking")
	s.Require().ErrorIs(err, commands.ErrCategoryNotFound)
}

func (s *CLISuite) TestPostsShow() {
	post := s.addPosts(1)[0]
	s.server.AddComment(post.ID, blog.Comment{Content: "first!", Author: "bob"})

	out, err := s.run("posts", "show", post.ID)
	s.Require().NoError(err)
	s.Contains(out, "Body of post")
	s.NotContains(out, "<b>")
	s.Contains(out, "first!")
	s.NotContains(out, "blogctl comments add")

	s.login()

	out, err = s.run("posts", "show", post.ID)
	s.Require().NoError(err)
	s.Contains(out, "blogctl comments add "+post.ID)
}

func (s *CLISuite) TestPostsShowMissing() {
	_, err := s.run("posts", "show", "missing")
	s.Require().ErrorIs(err, view.ErrPostNotFound)
}

func (s *CLISuite) TestPostsShowStripsTerminalEscapes() {
	post := s.server.AddPost(blog.Post{
		Title:    "Escapes",
		Content:  "<p>plain</p>",
		Category: blog.CategoryRef{ID: s.goID, Name: "Go\x1b]0;owned\x07"},
	})
	s.server.AddComment(post.ID, blog.Comment{Content: "hello", Author: "mallory\x1b[2J"})

	out, err := s.run("posts", "show", post.ID)
	s.Require().NoError(err)
	s.Contains(out, "mallory[2J")
	s.NotContains(out, "\x1b")
	s.NotContains(out, "\x07")

	out, err = s.run("posts", "list")
	s.Require().NoError(err)
	s.Contains(out, "Go]0;owned")
	s.NotContains(out, "\x1b")
}

func (s *CLISuite) TestPostsDelete() {
	posts := s.addPosts(3)
	s.login()

	out, err := s.run("posts", "delete", posts[1].ID, "-o", "json")
	s.Require().NoError(err)

	var list listOutput
	s.decode(out, &list)
	s.Len(list.Posts, 2)
	s.Len(s.server.Posts(), 2)
}

func (s *CLISuite) TestPostsDeleteFindsPostOnLaterPage() {
	posts := s.addPosts(12)
	s.login()

	out, err := s.run("posts", "delete", posts[0].ID, "-o", "json")
	s.Require().NoError(err)

	var list listOutput
	s.decode(out, &list)
	s.Equal(2, list.Page)
	s.Require().Len(list.Posts, 1)
	s.Equal(posts[1].ID, list.Posts[0].ID)
	s.Len(s.server.Posts(), 11)
}

func (s *CLISuite) TestPostsDeleteUnknownPost() {
	s.addPosts(12)
	s.login()

	out, err := s.run("posts", "delete", "missing", "-o", "json")
	s.Require().ErrorIs(err, commands.ErrDeleteFailed)

	var list listOutput
	s.decode(out, &list)
	s.Equal(1, list.Page)
	s.Len(s.server.Posts(), 12)
}

func (s *CLISuite) TestPostsDeleteFailureKeepsPost() {
	posts := s.addPosts(3)
	s.login()
	s.server.FailNext(http.MethodDelete, "/posts/"+posts[0].ID, http.StatusInternalServerError, "disk full")

	out, err := s.run("posts", "delete", posts[0].ID, "-o", "json")
	s.Require().ErrorIs(err, commands.ErrDeleteFailed)
	s.Contains(err.Error(), "disk full")

	var list listOutput
	s.decode(out, &list)
	s.Require().Len(list.Posts, 3)
	s.Equal(posts[2].ID, list.Posts[0].ID)
	s.Len(s.server.Posts(), 3)
}

func (s *CLISuite) TestPostsDeleteRequiresLogin() {
	posts := s.addPosts(1)

	_, err := s.run("posts", "delete", posts[0].ID)
	s.Require().ErrorIs(err, commands.ErrDeleteFailed)
	s.Len(s.server.Posts(), 1)
}

func (s *CLISuite) TestPostsCreateAndEdit() {
	_, err := s.run("posts", "create", "--title", "New", "--content", "Words", "--category", "go")
	s.Require().ErrorIs(err, commands.ErrLoginRequired)

	s.login()

	_, err = s.run("posts", "create", "--title", "New", "--category", "go")
	s.Require().ErrorIs(err, commands.ErrRequiredFlag)

	out, err := s.run("posts", "create", "--title", "New", "--content", "Words", "--category", "go", "-o", "json")
	s.Require().NoError(err)

	var created struct {
		Post blog.Post `json:"post"`
	}
	s.decode(out, &created)
	s.Equal("New", created.Post.Title)
	s.Equal(s.goID, created.Post.Category.ID)

	_, err = s.run("posts", "edit", created.Post.ID)
	s.Require().ErrorIs(err, commands.ErrNothingToUpdate)

	_, err = s.run("posts", "edit", created.Post.ID, "--title", "Renamed")
	s.Require().NoError(err)

	stored := s.server.Posts()
	s.Require().Len(stored, 1)
	s.Equal("Renamed", stored[0].Title)
	s.Equal("Words", stored[0].Content)
}

func (s *CLISuite) TestCommentsAdd() {
	post := s.addPosts(1)[0]

	_, err := s.run("comments", "add", post.ID, "Nice", "post")
	s.Require().ErrorIs(err, commands.ErrLoginRequired)
	s.Empty(s.server.Comments(post.ID))

	s.login()

	out, err := s.run("comments", "add", post.ID, "Nice", "post", "-o", "json")
	s.Require().NoError(err)

	var comments []blog.Comment
	s.decode(out, &comments)
	s.Require().Len(comments, 1)
	s.Equal("Nice post", comments[0].Content)
	s.Equal("alice", comments[0].Author)
	s.Len(s.server.Comments(post.ID), 1)

	out, err = s.run("comments", "list", post.ID)
	s.Require().NoError(err)
	s.Contains(out, "Nice post")
}

func (s *CLISuite) TestCategoriesList() {
	out, err := s.run("categories", "list", "-o", "json")
	s.Require().NoError(err)

	var categories []blog.Category
	s.decode(out, &categories)
	s.Equal([]blog.Category{{ID: s.goID, Name: "Go"}, {ID: s.travelID, Name: "Travel"}}, categories)
}

func (s *CLISuite) TestMetricsSummary() {
	s.addPosts(1)

	_, stderr, err := s.execute("", "--api", s.server.APIURL(), "--metrics", "posts", "list")
	s.Require().NoError(err)
	s.Contains(stderr, "Requests:")
	s.Contains(stderr, "/posts")
	s.Contains(stderr, "/categories")
}

func (s *CLISuite) TestConfigSetShowUnset() {
	_, err := s.run("config", "set", "bogus", "1")
	s.Require().ErrorIs(err, commands.ErrUnknownConfigKey)

	_, err = s.run("config", "set", "output", "xml")
	s.Require().ErrorIs(err, commands.ErrInvalidConfigValue)

	out, err := s.run("config", "set", "page_size", "7")
	s.Require().NoError(err)
	s.Contains(out, "page_size")

	s.login()

	out, err = s.run("config", "show", "-o", "json")
	s.Require().NoError(err)

	var shown commands.Config
	s.decode(out, &shown)
	s.Equal(7, shown.PageSize)
	s.Equal("********", shown.Token)
	s.Require().NotNil(shown.User)
	s.Equal("alice", shown.User.Username)

	_, err = s.run("config", "unset", "page_size")
	s.Require().NoError(err)

	out, err = s.run("config", "show", "-o", "json")
	s.Require().NoError(err)

	var reset commands.Config
	s.decode(out, &reset)
	s.Zero(reset.PageSize)
}
