package main

import (
	"errors"
	"fmt"

	"github.com/jaredkent/gitgo/config"
	"github.com/jaredkent/gitgo/object"
	"github.com/jaredkent/gitgo/refs"
	"github.com/spf13/cobra"
)

func newTagCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <name> [object]",
		Short: "Create a tag reference, optionally backed by an annotated tag object",
		Args:  cobra.RangeArgs(1, 2),
	}

	annotate := cmd.Flags().BoolP("annotate", "a", false, "Make an annotated tag object.")
	message := cmd.Flags().StringP("message", "m", "", "The tag message.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 2 {
			target = args[1]
		}
		return tagCmd(cfg, args[0], target, *annotate, *message)
	}

	return cmd
}

// tagCmd creates refs/tags/<name>. A lightweight tag points straight
// at the target; with -a the ref points at a freshly written tag
// object which in turn points at the target.
func tagCmd(cfg *globalFlags, name, targetName string, annotate bool, message string) error {
	if annotate && message == "" {
		return errors.New("fatal: no tag message?")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	var target object.Oid
	if targetName == "" {
		head, ok, headErr := r.HeadRev()
		if headErr != nil {
			return fmt.Errorf("fatal: could not read HEAD: %w", headErr)
		}
		if !ok {
			return errors.New("fatal: failed to resolve 'HEAD' as a valid ref")
		}
		target = head
	} else {
		if target, err = resolveObjectName(r.Objects, r, targetName); err != nil {
			return fmt.Errorf("fatal: not a valid object name %s", targetName)
		}
	}

	if annotate {
		o, getErr := r.GetObject(target)
		if getErr != nil {
			return fmt.Errorf("fatal: not a valid object name %s", target.String())
		}
		tagger, idErr := r.ResolveCommitter(cfg.env)
		if idErr != nil {
			return fmt.Errorf("fatal: could not determine identity: %w", idErr)
		}

		tag, tagErr := object.NewTag(&object.TagParams{
			Target:  o,
			Name:    name,
			Tagger:  object.NewSignature(tagger.Name, tagger.Email),
			Message: cleanCommitMessage(message),
		})
		if tagErr != nil {
			return fmt.Errorf("fatal: could not build tag: %w", tagErr)
		}
		if target, err = r.WriteObject(tag.ToObject()); err != nil {
			return fmt.Errorf("fatal: could not write tag: %w", err)
		}
	}

	ref := refs.NewReference(config.LocalTagFullName(name), target)
	if err := r.Refs.SetSafe(ref); err != nil {
		if errors.Is(err, refs.ErrRefExists) {
			return fmt.Errorf("fatal: tag '%s' already exists", name)
		}
		return fmt.Errorf("fatal: could not write tag ref: %w", err)
	}
	return nil
}
