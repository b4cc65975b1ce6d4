package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jaredkent/gitgo/object"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newHashObjectCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object [file]",
		Short: "Compute object ID and optionally create a blob from a file",
		Args:  cobra.MaximumNArgs(1),
	}

	write := cmd.Flags().BoolP("w", "w", false, "Write the object into the object database.")
	stdin := cmd.Flags().Bool("stdin", false, "Read the object content from standard input.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var filePath string
		if len(args) > 0 {
			filePath = args[0]
		}
		if !*stdin && filePath == "" {
			return fmt.Errorf("fatal: either a file or --stdin is required")
		}
		return hashObjectCmd(cmd.OutOrStdout(), cmd.InOrStdin(), cfg, filePath, *stdin, *write)
	}

	return cmd
}

func hashObjectCmd(out io.Writer, in io.Reader, cfg *globalFlags, filePath string, stdin, write bool) error {
	var content []byte
	var err error
	if stdin {
		content, err = io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("fatal: could not read standard input: %w", err)
		}
	} else {
		content, err = afero.ReadFile(afero.NewOsFs(), filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("fatal: could not open '%s' for reading: No such file or directory", filePath)
			}
			return fmt.Errorf("fatal: could not read %s: %w", filePath, err)
		}
	}

	o := object.New(object.TypeBlob, content)

	if write {
		r, err := loadRepository(cfg)
		if err != nil {
			return err
		}
		if _, err := r.WriteObject(o); err != nil {
			return fmt.Errorf("fatal: could not write object: %w", err)
		}
	}

	fmt.Fprintln(out, o.ID().String())
	return nil
}
