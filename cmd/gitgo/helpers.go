package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	git "github.com/jaredkent/gitgo"
	"github.com/jaredkent/gitgo/config"
	"github.com/jaredkent/gitgo/internal/pathutil"
)

// loadRepository resolves and opens the repository containing cfg.C,
// translating discovery failures into the fatal line git itself prints.
func loadRepository(cfg *globalFlags) (*git.Repository, error) {
	c, err := config.LoadConfig(cfg.env, config.LoadConfigOptions{
		WorkingDirectory: cfg.C.String(),
	})
	if err != nil {
		if errors.Is(err, pathutil.ErrNoRepo) {
			return nil, errNotARepository
		}
		return nil, fmt.Errorf("fatal: could not load config: %w", err)
	}

	r, err := git.Open(c)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExist) {
			return nil, errNotARepository
		}
		return nil, fmt.Errorf("fatal: %w", err)
	}
	return r, nil
}

var errNotARepository = errors.New("fatal: not a git repository (or any of the parent directories): .git")

// cleanCommitMessage normalizes a -m message the way git does: exactly
// one trailing newline
func cleanCommitMessage(msg string) string {
	return strings.TrimRight(msg, "\n") + "\n"
}

func fprintln(quiet bool, out io.Writer, msg ...interface{}) {
	if !quiet {
		fmt.Fprintln(out, msg...)
	}
}

func fprintf(quiet bool, out io.Writer, format string, a ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, format, a...)
	}
}
