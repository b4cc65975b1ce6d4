package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaredkent/gitgo/env"
	"github.com/stretchr/testify/require"
)

// testEnv returns an environment with a deterministic identity, so
// commit-building commands don't depend on the host's git config
func testEnv() *env.Env {
	return env.NewFromKVList([]string{
		"GIT_AUTHOR_NAME=Ada Lovelace",
		"GIT_AUTHOR_EMAIL=ada@example.com",
		"GIT_COMMITTER_NAME=Ada Lovelace",
		"GIT_COMMITTER_EMAIL=ada@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	})
}

// runGitgo executes the CLI with the given args, returning what was
// written to stdout. in may be nil.
func runGitgo(t *testing.T, in io.Reader, args ...string) (stdout string, err error) {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	outBuf := bytes.NewBufferString("")
	cmd := newRootCmd(cwd, testEnv())
	cmd.SetArgs(args)
	cmd.SetOut(outBuf)
	cmd.SetErr(io.Discard)
	if in != nil {
		cmd.SetIn(in)
	}

	require.NotPanics(t, func() {
		err = cmd.Execute()
	})
	return outBuf.String(), err
}

// initTestRepo creates a temp dir and initializes a repository in it
func initTestRepo(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "gitgo_test_")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, os.RemoveAll(dir))
	})

	_, err = runGitgo(t, nil, "init", "-q", dir)
	require.NoError(t, err)
	return dir
}

// writeWorkTreeFile creates a file (and its parent dirs) inside the
// given work tree
func writeWorkTreeFile(t *testing.T, workTree, rel, content string) {
	t.Helper()

	full := filepath.Join(workTree, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
