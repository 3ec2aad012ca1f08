package main

import (
	"github.com/odvcencio/gitelle/pkg/diff"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var staged bool
	var context int

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changes between the index and the working tree, or HEAD and the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			changes, err := r.Diff(staged)
			if err != nil {
				return err
			}
			for _, ch := range changes {
				if err := diff.Unified(cmd.OutOrStdout(), ch.Path, ch.Before, ch.After, context); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&staged, "staged", false, "compare HEAD to the index")
	cmd.Flags().IntVarP(&context, "unified", "U", diff.DefaultContext, "lines of context")
	return cmd
}
