package git_test

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/jaredkent/gitgo"
	"github.com/jaredkent/gitgo/config"
	"github.com/jaredkent/gitgo/env"
	"github.com/jaredkent/gitgo/index"
	"github.com/jaredkent/gitgo/internal/testutil"
	"github.com/jaredkent/gitgo/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	c, err := config.LoadConfig(env.NewFromKVList([]string{}), config.LoadConfigOptions{
		WorkingDirectory: dir,
		SkipGitDirLookUp: true,
	})
	require.NoError(t, err)
	return c
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("creates the skeleton", func(t *testing.T) {
		t.Parallel()

		d, cleanup := testutil.TempDir(t)
		t.Cleanup(cleanup)

		c := loadConfig(t, d)
		r, wasReinit, err := git.Init(c, git.InitOptions{})
		require.NoError(t, err)
		assert.False(t, wasReinit)

		info, err := os.Stat(filepath.Join(d, ".git"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		data, err := os.ReadFile(filepath.Join(d, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/master\n", string(data))

		assert.DirExists(t, filepath.Join(d, ".git", "objects"))
		assert.DirExists(t, filepath.Join(d, ".git", "refs", "heads"))
		assert.DirExists(t, filepath.Join(d, ".git", "refs", "tags"))
		assert.DirExists(t, filepath.Join(d, ".git", "branches"))
		assert.FileExists(t, filepath.Join(d, ".git", "description"))
		assert.FileExists(t, filepath.Join(d, ".git", "config"))

		assert.NotNil(t, r.Objects)
		assert.NotNil(t, r.Refs)
	})

	t.Run("honors a custom initial branch", func(t *testing.T) {
		t.Parallel()

		d, cleanup := testutil.TempDir(t)
		t.Cleanup(cleanup)

		c := loadConfig(t, d)
		_, _, err := git.Init(c, git.InitOptions{InitialBranchName: "main"})
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(d, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(data))
	})

	t.Run("reinit reports wasReinit and doesn't touch HEAD", func(t *testing.T) {
		t.Parallel()

		d, cleanup := testutil.TempDir(t)
		t.Cleanup(cleanup)

		c := loadConfig(t, d)
		_, wasReinit, err := git.Init(c, git.InitOptions{InitialBranchName: "main"})
		require.NoError(t, err)
		require.False(t, wasReinit)

		c2 := loadConfig(t, d)
		_, wasReinit, err = git.Init(c2, git.InitOptions{})
		require.NoError(t, err)
		assert.True(t, wasReinit)

		data, err := os.ReadFile(filepath.Join(d, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(data), "a reinit must not overwrite an existing HEAD")
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("fails when there's no repository", func(t *testing.T) {
		t.Parallel()

		d, cleanup := testutil.TempDir(t)
		t.Cleanup(cleanup)

		c := loadConfig(t, d)
		_, err := git.Open(c)
		assert.ErrorIs(t, err, git.ErrRepositoryNotExist)
	})

	t.Run("opens an initialized repository", func(t *testing.T) {
		t.Parallel()

		d, cleanup := testutil.TempDir(t)
		t.Cleanup(cleanup)

		c := loadConfig(t, d)
		_, _, err := git.Init(c, git.InitOptions{})
		require.NoError(t, err)

		c2 := loadConfig(t, d)
		r, err := git.Open(c2)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})
}

func TestHeadRevAndAdvanceHead(t *testing.T) {
	t.Parallel()

	d, cleanup := testutil.TempDir(t)
	t.Cleanup(cleanup)

	c := loadConfig(t, d)
	r, _, err := git.Init(c, git.InitOptions{})
	require.NoError(t, err)

	_, ok, err := r.HeadRev()
	require.NoError(t, err)
	assert.False(t, ok, "a freshly initialized repo has no HEAD commit yet")

	blob := object.New(object.TypeBlob, []byte("hello"))
	oid, err := r.WriteObject(blob)
	require.NoError(t, err)

	require.NoError(t, r.AdvanceHead(oid))

	head, ok, err := r.HeadRev()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, oid, head)

	ref, err := r.GetReference("refs/heads/master")
	require.NoError(t, err)
	assert.Equal(t, oid, ref.Target())
}

func TestIndexRoundtrip(t *testing.T) {
	t.Parallel()

	d, cleanup := testutil.TempDir(t)
	t.Cleanup(cleanup)

	c := loadConfig(t, d)
	r, _, err := git.Init(c, git.InitOptions{})
	require.NoError(t, err)

	idx, err := r.LoadIndex()
	require.NoError(t, err)
	assert.Empty(t, idx.Entries(), "a fresh repo has an empty index")

	blob := object.New(object.TypeBlob, []byte("content"))
	oid, err := r.WriteObject(blob)
	require.NoError(t, err)

	fi, err := os.Stat(filepath.Join(d, ".git", "HEAD"))
	require.NoError(t, err)

	idx.AddEntry(index.NewEntryFromFileInfo("file.txt", oid, fi))
	require.NoError(t, r.SaveIndex(idx))

	reloaded, err := r.LoadIndex()
	require.NoError(t, err)
	require.Len(t, reloaded.Entries(), 1)
	assert.Equal(t, "file.txt", reloaded.Entries()[0].Path)
}

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	d, cleanup := testutil.TempDir(t)
	t.Cleanup(cleanup)

	c, err := config.LoadConfig(env.NewFromKVList([]string{
		"GIT_AUTHOR_NAME=Ada Lovelace",
		"GIT_AUTHOR_EMAIL=ada@example.com",
		"GIT_COMMITTER_NAME=Ada Lovelace",
		"GIT_COMMITTER_EMAIL=ada@example.com",
	}), config.LoadConfigOptions{
		WorkingDirectory: d,
		SkipGitDirLookUp: true,
	})
	require.NoError(t, err)

	r, _, err := git.Init(c, git.InitOptions{})
	require.NoError(t, err)

	e := env.NewFromKVList([]string{
		"GIT_AUTHOR_NAME=Ada Lovelace",
		"GIT_AUTHOR_EMAIL=ada@example.com",
	})
	author, err := r.ResolveAuthor(e)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", author.Name)
	assert.Equal(t, "ada@example.com", author.Email)
}
