package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	t.Parallel()

	dir := stageScenarioFiles(t)
	first := commitAll(t, dir, "first commit")

	writeWorkTreeFile(t, dir, "another-file", "more\n")
	_, err := runGitgo(t, nil, "add", "-C", dir, "another-file")
	require.NoError(t, err)
	second := commitAll(t, dir, "second commit")

	out, err := runGitgo(t, nil, "log", "-C", dir, "--no-color")
	require.NoError(t, err)

	// newest first, parents walked from HEAD
	secondAt := strings.Index(out, "commit "+second)
	firstAt := strings.Index(out, "commit "+first)
	require.NotEqual(t, -1, secondAt)
	require.NotEqual(t, -1, firstAt)
	assert.Less(t, secondAt, firstAt)

	assert.Contains(t, out, "Author: Ada Lovelace <ada@example.com>\n")
	assert.Contains(t, out, "Date:   ")
	assert.Contains(t, out, "    first commit\n")
	assert.Contains(t, out, "    second commit\n")
	assert.NotContains(t, out, "\x1b[33m")
}

func TestLogColorsTheShaLine(t *testing.T) {
	t.Parallel()

	dir := stageScenarioFiles(t)
	sha := commitAll(t, dir, "only commit")

	out, err := runGitgo(t, nil, "log", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "commit \x1b[33m"+sha+"\x1b[0m\n")
}

func TestLogStopsOnUnreadableParent(t *testing.T) {
	t.Parallel()

	dir := stageScenarioFiles(t)
	first := commitAll(t, dir, "first commit")

	writeWorkTreeFile(t, dir, "another-file", "more\n")
	_, err := runGitgo(t, nil, "add", "-C", dir, "another-file")
	require.NoError(t, err)
	second := commitAll(t, dir, "second commit")

	// simulate a parent that only exists in a packfile by removing its
	// loose object
	objPath := filepath.Join(dir, ".git", "objects", first[:2], first[2:])
	require.NoError(t, os.Chmod(objPath, 0o644))
	require.NoError(t, os.Remove(objPath))

	cwd, err := os.Getwd()
	require.NoError(t, err)

	outBuf := bytes.NewBufferString("")
	errBuf := bytes.NewBufferString("")
	cmd := newRootCmd(cwd, testEnv())
	cmd.SetArgs([]string{"log", "-C", dir, "--no-color"})
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, outBuf.String(), "commit "+second)
	assert.NotContains(t, outBuf.String(), "commit "+first)
	assert.Equal(t,
		"GFG: The next parent object might be a packfile. Packfiles are not supported.\n",
		errBuf.String())
}

func TestLogOnEmptyRepository(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t)

	out, err := runGitgo(t, nil, "log", "-C", dir)
	require.NoError(t, err)
	assert.Empty(t, out, "a repository with no commits has nothing to log")
}
