package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "branch [name]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Delete mode.
			if deleteBranch != "" {
				if err := r.DeleteBranch(deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted branch %s\n", deleteBranch)
				return nil
			}

			// Create mode.
			if len(args) == 1 {
				return r.CreateBranch(args[0])
			}

			branches, err := r.Branches()
			if err != nil {
				return err
			}
			width := 0
			for _, b := range branches {
				width = max(width, len(b.Name))
			}
			for _, b := range branches {
				marker, name := "  ", b.Name
				if b.Current {
					marker, name = "* ", stagedColor(b.Name)
				}
				if verbose {
					pad := width - len(b.Name)
					fmt.Fprintf(out, "%s%s%*s %s %s\n", marker, name, pad, "", hashColor(shortHash(string(b.Hash))), b.Subject)
					continue
				}
				fmt.Fprintf(out, "%s%s\n", marker, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the tip commit of each branch")
	return cmd
}
