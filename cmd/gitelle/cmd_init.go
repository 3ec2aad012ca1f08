package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/gitelle/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty gitelle repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			// Ensure the target directory exists.
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			opts := []repo.Option{repo.WithLogger(logger)}
			if branch != "" {
				opts = append(opts, repo.WithDefaultBranch(branch))
			}
			r, err := repo.Init(abs, opts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty gitelle repository in %s\n", r.MetaDir+string(filepath.Separator))
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "initial-branch", "b", "", "name of the initial branch (default: main)")
	return cmd
}
