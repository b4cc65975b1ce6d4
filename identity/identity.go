// Package identity resolves the (name, email) pair used to sign
// commits and tags, the way upstream Git does: environment variables
// first, then the given config source (user.name/user.email), matching the documented
// precedence of $GIT_AUTHOR_NAME/$GIT_AUTHOR_EMAIL and their
// committer counterparts.
// https://git-scm.com/book/en/v2/Git-Internals-Environment-Variables
package identity

import (
	"errors"

	"github.com/jaredkent/gitgo/env"
)

// ErrUnavailable is returned when no identity could be resolved from
// the environment or the config files.
var ErrUnavailable = errors.New("identity unavailable")

// ConfigSource is the subset of config.FileAggregate identity relies
// on, kept minimal so callers can inject a fake in tests without
// depending on the config package.
type ConfigSource interface {
	UserName() (name string, ok bool)
	UserEmail() (email string, ok bool)
}

// Identity represents a person signing a commit or a tag.
type Identity struct {
	Name  string
	Email string
}

// ResolveAuthor returns the identity to use as a commit/tag author,
// consulting $GIT_AUTHOR_NAME/$GIT_AUTHOR_EMAIL before falling back to
// the config's user.name/user.email.
func ResolveAuthor(e *env.Env, cfg ConfigSource) (Identity, error) {
	return resolve(e, cfg, "GIT_AUTHOR_NAME", "GIT_AUTHOR_EMAIL")
}

// ResolveCommitter returns the identity to use as a commit committer,
// consulting $GIT_COMMITTER_NAME/$GIT_COMMITTER_EMAIL before falling
// back to the config's user.name/user.email.
func ResolveCommitter(e *env.Env, cfg ConfigSource) (Identity, error) {
	return resolve(e, cfg, "GIT_COMMITTER_NAME", "GIT_COMMITTER_EMAIL")
}

func resolve(e *env.Env, cfg ConfigSource, nameVar, emailVar string) (Identity, error) {
	id := Identity{
		Name:  e.Get(nameVar),
		Email: e.Get(emailVar),
	}

	if id.Name == "" && cfg != nil {
		if name, ok := cfg.UserName(); ok {
			id.Name = name
		}
	}
	if id.Email == "" && cfg != nil {
		if email, ok := cfg.UserEmail(); ok {
			id.Email = email
		}
	}

	if id.Name == "" || id.Email == "" {
		return Identity{}, ErrUnavailable
	}
	return id, nil
}
