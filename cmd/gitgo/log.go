package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jaredkent/gitgo/object"
	"github.com/jaredkent/gitgo/objstore"
	"github.com/spf13/cobra"
)

const yellow = "\x1b[33m"
const colorReset = "\x1b[0m"

func newLogCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit logs",
		Args:  cobra.NoArgs,
	}

	// upstream `log` defaults to colouring the sha line when stdout is
	// a tty; this flag matches that decision without a pager/tty check
	// so output is deterministic when diffing against upstream.
	noColor := cmd.Flags().Bool("no-color", false, "Disable colour output.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return logCmd(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, *noColor)
	}

	return cmd
}

func logCmd(out, errOut io.Writer, cfg *globalFlags, noColor bool) error {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	oid, ok, err := r.HeadRev()
	if err != nil {
		return fmt.Errorf("fatal: could not read HEAD: %w", err)
	}
	if !ok {
		return nil
	}

	for {
		o, err := r.GetObject(oid)
		if err != nil {
			if errors.Is(err, objstore.ErrObjectNotFound) {
				fmt.Fprintln(errOut, "GFG: The next parent object might be a packfile. Packfiles are not supported.")
				return nil
			}
			return fmt.Errorf("fatal: %w", err)
		}

		c, err := o.AsCommit()
		if err != nil {
			return fmt.Errorf("fatal: could not parse commit %s: %w", oid.String(), err)
		}

		printCommit(out, c, noColor)

		parents := c.ParentIDs()
		if len(parents) == 0 {
			return nil
		}
		oid = parents[0]
	}
}

func printCommit(out io.Writer, c *object.Commit, noColor bool) {
	sha := c.ID().String()
	if !noColor {
		sha = yellow + sha + colorReset
	}
	fmt.Fprintf(out, "commit %s\n", sha)
	fmt.Fprintf(out, "Author: %s <%s>\n", c.Author().Name, c.Author().Email)
	fmt.Fprintf(out, "Date:   %s\n", c.Author().Time.Format("Mon Jan 2 15:04:05 2006 -0700"))
	fmt.Fprintln(out)
	for _, line := range strings.Split(strings.TrimSuffix(c.Message(), "\n"), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintln(out)
}
