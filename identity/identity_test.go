package identity_test

import (
	"testing"

	"github.com/jaredkent/gitgo/env"
	"github.com/jaredkent/gitgo/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfig is a deterministic ConfigSource for tests
type fakeConfig struct {
	name  string
	email string
}

func (c *fakeConfig) UserName() (string, bool)  { return c.name, c.name != "" }
func (c *fakeConfig) UserEmail() (string, bool) { return c.email, c.email != "" }

func TestResolveAuthor(t *testing.T) {
	t.Parallel()

	t.Run("env wins over config", func(t *testing.T) {
		t.Parallel()

		e := env.NewFromKVList([]string{
			"GIT_AUTHOR_NAME=Ada Lovelace",
			"GIT_AUTHOR_EMAIL=ada@example.com",
		})
		cfg := &fakeConfig{name: "Config Name", email: "config@example.com"}

		id, err := identity.ResolveAuthor(e, cfg)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", id.Name)
		assert.Equal(t, "ada@example.com", id.Email)
	})

	t.Run("falls back to config", func(t *testing.T) {
		t.Parallel()

		e := env.NewFromKVList([]string{})
		cfg := &fakeConfig{name: "Config Name", email: "config@example.com"}

		id, err := identity.ResolveAuthor(e, cfg)
		require.NoError(t, err)
		assert.Equal(t, "Config Name", id.Name)
		assert.Equal(t, "config@example.com", id.Email)
	})

	t.Run("mixes env and config", func(t *testing.T) {
		t.Parallel()

		e := env.NewFromKVList([]string{"GIT_AUTHOR_NAME=Ada Lovelace"})
		cfg := &fakeConfig{email: "config@example.com"}

		id, err := identity.ResolveAuthor(e, cfg)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", id.Name)
		assert.Equal(t, "config@example.com", id.Email)
	})

	t.Run("fails when nothing resolves", func(t *testing.T) {
		t.Parallel()

		_, err := identity.ResolveAuthor(env.NewFromKVList([]string{}), &fakeConfig{})
		assert.ErrorIs(t, err, identity.ErrUnavailable)
	})

	t.Run("fails on a partial identity", func(t *testing.T) {
		t.Parallel()

		e := env.NewFromKVList([]string{"GIT_AUTHOR_NAME=Ada Lovelace"})
		_, err := identity.ResolveAuthor(e, &fakeConfig{})
		assert.ErrorIs(t, err, identity.ErrUnavailable)
	})

	t.Run("works without a config source", func(t *testing.T) {
		t.Parallel()

		e := env.NewFromKVList([]string{
			"GIT_AUTHOR_NAME=Ada Lovelace",
			"GIT_AUTHOR_EMAIL=ada@example.com",
		})
		id, err := identity.ResolveAuthor(e, nil)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", id.Name)
	})
}

func TestResolveCommitter(t *testing.T) {
	t.Parallel()

	e := env.NewFromKVList([]string{
		"GIT_AUTHOR_NAME=Ada Lovelace",
		"GIT_AUTHOR_EMAIL=ada@example.com",
		"GIT_COMMITTER_NAME=Grace Hopper",
		"GIT_COMMITTER_EMAIL=grace@example.com",
	})

	id, err := identity.ResolveCommitter(e, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", id.Name)
	assert.Equal(t, "grace@example.com", id.Email)
}
