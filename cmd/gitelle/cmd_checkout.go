package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var newBranch bool

	cmd := &cobra.Command{
		Use:   "checkout [-b] <branch|commit>",
		Short: "Switch branches or restore a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			target := args[0]
			out := cmd.OutOrStdout()

			if newBranch {
				if err := r.CheckoutNewBranch(target); err != nil {
					return err
				}
				fmt.Fprintf(out, "Switched to a new branch '%s'\n", target)
				return nil
			}

			if err := r.Checkout(target); err != nil {
				return err
			}
			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch != "" {
				fmt.Fprintf(out, "Switched to branch '%s'\n", branch)
				return nil
			}
			h, err := r.ResolveCommit("HEAD")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "HEAD is now at %s\n", shortHash(string(h)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&newBranch, "branch", "b", false, "create the branch at HEAD and switch to it")
	return cmd
}
