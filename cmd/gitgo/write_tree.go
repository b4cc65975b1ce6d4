package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newWriteTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write-tree",
		Short: "Create a tree object from the current index",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return writeTreeCmd(cmd.OutOrStdout(), cfg)
	}

	return cmd
}

func writeTreeCmd(out io.Writer, cfg *globalFlags) error {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	idx, err := r.LoadIndex()
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	root, err := idx.WriteTrees(r.Objects)
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	if err := r.SaveIndex(idx); err != nil {
		return fmt.Errorf("fatal: could not save index: %w", err)
	}

	fmt.Fprintln(out, root.String())
	return nil
}
