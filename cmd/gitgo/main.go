// Command gitgo is a plumbing-level re-implementation of a handful of
// core git commands: init, add, cat-file, hash-object, write-tree,
// commit-tree, commit, log and tag.
package main

import (
	"fmt"
	"os"

	"github.com/jaredkent/gitgo/env"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: could not get current directory: %s\n", err)
		os.Exit(1)
	}

	root := newRootCmd(cwd, env.NewFromOs())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
