package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/cmd/blogctl/commands"
)

func TestNewRootCommand(t *testing.T) {
	cmd := commands.NewRootCommand("1.0.0", "abc", "today")
	assert.Equal(t, "blogctl", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, name := range []string{"config", "api", "output", "verbose", "metrics"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "Flag %s should exist", name)
	}

	for _, name := range []string{"version", "config", "login", "logout", "whoami", "posts", "comments", "categories"} {
		assert.NotNil(t, findSubcommand(cmd, name), "Command %s should exist", name)
	}
}

func TestNewPostsCommand(t *testing.T) {
	cmd := commands.NewPostsCommand()
	assert.Equal(t, "posts", cmd.Use)
	assert.Equal(t, []string{"post"}, cmd.Aliases)

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 5)

	list := findSubcommand(cmd, "list")
	require.NotNil(t, list)

	for _, name := range []string{"page", "per-page", "category", "search"} {
		assert.NotNil(t, list.Flags().Lookup(name), "Flag %s should exist", name)
	}

	assert.Equal(t, "1", list.Flags().Lookup("page").DefValue)

	del := findSubcommand(cmd, "delete")
	require.NotNil(t, del)
	assert.Equal(t, "delete POST_ID", del.Use)
	assert.NotNil(t, del.Args)
	assert.NotNil(t, del.Flags().Lookup("page"))

	for _, sub := range []string{"create", "edit"} {
		c := findSubcommand(cmd, sub)
		require.NotNil(t, c)

		for _, name := range []string{"title", "content", "category", "image"} {
			assert.NotNil(t, c.Flags().Lookup(name), "Flag %s on %s should exist", name, sub)
		}
	}
}

func TestNewCommentsCommand(t *testing.T) {
	cmd := commands.NewCommentsCommand()
	assert.Equal(t, "comments", cmd.Use)

	add := findSubcommand(cmd, "add")
	require.NotNil(t, add)
	assert.Equal(t, "add POST_ID TEXT...", add.Use)
	require.Error(t, add.Args(add, []string{"only-id"}))
	require.NoError(t, add.Args(add, []string{"id", "some", "text"}))

	assert.NotNil(t, findSubcommand(cmd, "list"))
}

func TestNewLoginCommand(t *testing.T) {
	cmd := commands.NewLoginCommand()
	assert.Equal(t, "login", cmd.Use)
	assert.Equal(t, "u", cmd.Flags().Lookup("username").Shorthand)
	assert.Equal(t, "p", cmd.Flags().Lookup("password").Shorthand)
}

func TestNewWhoamiCommand(t *testing.T) {
	cmd := commands.NewWhoamiCommand()
	assert.Equal(t, "whoami", cmd.Use)
	assert.Equal(t, "false", cmd.Flags().Lookup("offline").DefValue)
}
