package main

import (
	"fmt"
	"io"

	"github.com/jaredkent/gitgo/object"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a new commit object from a tree",
		Args:  cobra.ExactArgs(1),
	}

	message := cmd.Flags().StringP("message", "m", "", "A commit message.")
	var parents []string
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "Each -p indicates the id of a parent commit object.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitTreeCmd(cmd.OutOrStdout(), cfg, args[0], *message, parents)
	}

	return cmd
}

func commitTreeCmd(out io.Writer, cfg *globalFlags, treeName, message string, parentNames []string) error {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	treeOid, err := resolveObjectName(r.Objects, r, treeName)
	if err != nil {
		return fmt.Errorf("fatal: not a valid object name %s", treeName)
	}

	parents := make([]object.Oid, 0, len(parentNames))
	for _, p := range parentNames {
		oid, err := resolveObjectName(r.Objects, r, p)
		if err != nil {
			return fmt.Errorf("fatal: not a valid object name %s", p)
		}
		parents = append(parents, oid)
	}

	author, err := r.ResolveAuthor(cfg.env)
	if err != nil {
		return fmt.Errorf("fatal: could not determine identity: %w", err)
	}
	committer, err := r.ResolveCommitter(cfg.env)
	if err != nil {
		return fmt.Errorf("fatal: could not determine identity: %w", err)
	}

	c := object.NewCommit(treeOid, object.NewSignature(author.Name, author.Email), &object.CommitOptions{
		Message:   cleanCommitMessage(message),
		Committer: object.NewSignature(committer.Name, committer.Email),
		ParentsID: parents,
	})

	oid, err := r.WriteObject(c.ToObject())
	if err != nil {
		return fmt.Errorf("fatal: could not write commit: %w", err)
	}

	fmt.Fprintln(out, oid.String())
	return nil
}
