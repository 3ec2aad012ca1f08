package main

import (
	"fmt"

	"github.com/odvcencio/gitelle/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var sign bool
	var keyPath string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			var signer repo.CommitSigner
			if sign || keyPath != "" {
				s, _, err := newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
				signer = s
			}

			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch == "" {
				branch = "detached HEAD"
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			root := ""
			if c.Parent == "" {
				root = "(root-commit) "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s%s] %s\n", branch, root, shortHash(string(h)), repo.LogEntry{Hash: h, Commit: c}.Subject())
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author (default: configured user, then $USER)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for signing (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	return cmd
}
