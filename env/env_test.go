package env_test

import (
	"fmt"
	"testing"

	"github.com/jaredkent/gitgo/env"
	"github.com/stretchr/testify/assert"
)

func TestNewFromOs(t *testing.T) {
	t.Parallel()

	e := env.NewFromOs()
	assert.True(t, e.Has("PATH") || e.Has("Path"))
}

func TestNewFromKVList(t *testing.T) {
	t.Parallel()

	e := env.NewFromKVList([]string{
		"VERSION=1",
		"ENABLE=true",
		"PATH=a:b:c",
		"X=",
	})
	assert.True(t, e.Has("VERSION"))
	assert.Equal(t, "a:b:c", e.Get("PATH"))
	assert.Equal(t, "", e.Get("X"))
	assert.True(t, e.Has("X"))
}

func TestGet(t *testing.T) {
	t.Parallel()

	e := env.NewFromKVList([]string{
		"VERSION=1",
	})

	testCases := []struct {
		desc     string
		input    string
		expected string
	}{
		{desc: "existing key", input: "VERSION", expected: "1"},
		{desc: "existing key invalid case", input: "version", expected: ""},
		{desc: "non existing key", input: "nope", expected: ""},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, e.Get(tc.input))
		})
	}
}

func TestHas(t *testing.T) {
	t.Parallel()

	e := env.NewFromKVList([]string{
		"VERSION=1",
	})

	assert.True(t, e.Has("VERSION"))
	assert.False(t, e.Has("version"))
	assert.False(t, e.Has("nope"))
}
