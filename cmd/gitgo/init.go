package main

import (
	"fmt"
	"io"
	"path/filepath"

	git "github.com/jaredkent/gitgo"
	"github.com/jaredkent/gitgo/config"
	"github.com/spf13/cobra"
)

func newInitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty Git repository or reinitialize an existing one",
		Args:  cobra.MaximumNArgs(1),
	}

	var (
		initialBranch string
		quiet         bool
	)
	cmd.Flags().StringVarP(&initialBranch, "initial-branch", "b", "", "Use the specified name for the initial branch.")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print error and warning messages.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := cfg.C.String()
		if len(args) > 0 {
			dir = args[0]
		}
		return initCmd(cmd.OutOrStdout(), cfg, dir, initialBranch, quiet)
	}

	return cmd
}

func initCmd(out io.Writer, cfg *globalFlags, directory, initialBranch string, quiet bool) error {
	c, err := config.LoadConfig(cfg.env, config.LoadConfigOptions{
		WorkingDirectory: directory,
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return fmt.Errorf("fatal: could not load config: %w", err)
	}

	r, wasReinit, err := git.Init(c, git.InitOptions{InitialBranchName: initialBranch})
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	abs, err := filepath.Abs(r.Config.GitDirPath)
	if err != nil {
		abs = r.Config.GitDirPath
	}
	if wasReinit {
		fprintln(quiet, out, "Reinitialized existing Git repository in", abs+"/")
	} else {
		fprintln(quiet, out, "Initialized empty Git repository in", abs+"/")
	}
	return nil
}
