package main

import (
	"fmt"
	"io"

	"github.com/jaredkent/gitgo/object"
	"github.com/spf13/cobra"
)

func newCommitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Args:  cobra.NoArgs,
	}

	message := cmd.Flags().StringP("message", "m", "", "The commit message.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitCmd(cmd.OutOrStdout(), cfg, *message)
	}

	return cmd
}

func commitCmd(out io.Writer, cfg *globalFlags, message string) error {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	idx, err := r.LoadIndex()
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	treeOid, err := idx.WriteTrees(r.Objects)
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}
	if err := r.SaveIndex(idx); err != nil {
		return fmt.Errorf("fatal: could not save index: %w", err)
	}

	var parents []object.Oid
	if head, ok, headErr := r.HeadRev(); headErr != nil {
		return fmt.Errorf("fatal: could not read HEAD: %w", headErr)
	} else if ok {
		parents = []object.Oid{head}
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

	if err := r.AdvanceHead(oid); err != nil {
		return fmt.Errorf("fatal: could not update HEAD: %w", err)
	}

	fmt.Fprintln(out, oid.String())
	return nil
}
