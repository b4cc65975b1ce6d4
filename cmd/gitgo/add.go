package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaredkent/gitgo/index"
	"github.com/jaredkent/gitgo/object"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newAddCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Add file contents to the index",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return addCmd(cfg, args)
	}

	return cmd
}

// addCmd stages each path: every path must exist before anything is
// written, the blob is written to the object store first, then the
// index entry is recorded, so a crash mid-operation never leaves the
// index pointing at a SHA the object store doesn't have.
func addCmd(cfg *globalFlags, paths []string) error {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	fs := r.FS()
	type staged struct {
		indexPath string
		abs       string
		fi        os.FileInfo
	}
	toStage := make([]staged, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(r.WorkTreePath(), p)
		}
		fi, statErr := fs.Stat(abs)
		if statErr != nil {
			return fmt.Errorf("fatal: pathspec '%s' did not match any files", p)
		}
		if fi.IsDir() {
			return fmt.Errorf("fatal: pathspec '%s' did not match any files", p)
		}

		rel, relErr := filepath.Rel(r.WorkTreePath(), abs)
		if relErr != nil {
			return fmt.Errorf("fatal: could not resolve %s relative to the work tree: %w", p, relErr)
		}
		toStage = append(toStage, staged{indexPath: index.CleanPath(rel), abs: abs, fi: fi})
	}

	idx, err := r.LoadIndex()
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	for _, s := range toStage {
		content, readErr := afero.ReadFile(fs, s.abs)
		if readErr != nil {
			return fmt.Errorf("fatal: could not read %s: %w", s.abs, readErr)
		}

		o := object.New(object.TypeBlob, content)
		oid, writeErr := r.WriteObject(o)
		if writeErr != nil {
			return fmt.Errorf("fatal: could not write object for %s: %w", s.indexPath, writeErr)
		}

		entry := index.NewEntryFromFileInfo(s.indexPath, oid, s.fi)
		idx.AddEntry(entry)
	}

	if err := r.SaveIndex(idx); err != nil {
		return fmt.Errorf("fatal: could not save index: %w", err)
	}
	return nil
}
