package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/repo"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

var hashColor = color.New(color.FgYellow).SprintFunc()

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int
	var showSignature bool

	cmd := &cobra.Command{
		Use:   "log [rev]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			var start object.Hash
			if len(args) > 0 {
				if start, err = r.ResolveCommit(args[0]); err != nil {
					return err
				}
			}
			entries, err := r.Log(start, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			headHash, _ := r.ResolveCommit("HEAD")
			branchName, err := r.CurrentBranch()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				decoration := buildDecoration(e.Hash, headHash, branchName)
				if oneline {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", hashColor(shortHash(string(e.Hash))), decoration, e.Subject())
					} else {
						fmt.Fprintf(out, "%s %s\n", hashColor(shortHash(string(e.Hash))), e.Subject())
					}
					continue
				}
				printLogEntry(out, e, decoration, showSignature)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show (0 for all)")
	cmd.Flags().BoolVar(&showSignature, "show-signature", false, "verify and show commit signatures")
	return cmd
}

func printLogEntry(out io.Writer, e repo.LogEntry, decoration string, showSignature bool) {
	c := e.Commit
	if decoration != "" {
		fmt.Fprintf(out, "%s %s\n", hashColor("commit "+string(e.Hash)), decoration)
	} else {
		fmt.Fprintln(out, hashColor("commit "+string(e.Hash)))
	}
	if showSignature && c.Signature != "" {
		pub, err := verifySSHSignature(c.Signature, object.CommitSigningPayload(c))
		if err != nil {
			fmt.Fprintf(out, "Bad signature: %v\n", err)
		} else {
			fmt.Fprintf(out, "Good signature from %s\n", ssh.FingerprintSHA256(pub))
		}
	}
	when := time.Unix(c.Timestamp, 0)
	fmt.Fprintf(out, "Author: %s\n", c.Author)
	fmt.Fprintf(out, "Date:   %s (%s)\n", when.Format("2006-01-02 15:04:05"), humanize.Time(when))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "    %s\n", e.Subject())
	fmt.Fprintln(out)
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}
