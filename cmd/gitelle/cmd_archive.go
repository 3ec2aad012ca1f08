package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "archive [rev]",
		Short: "Write a commit's tree as a zstd-compressed tar archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) > 0 {
				rev = args[0]
			}

			if output == "" || output == "-" {
				return r.Archive(cmd.OutOrStdout(), rev)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := r.Archive(f, rev); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			if info, err := os.Stat(output); err == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", output, humanize.Bytes(uint64(info.Size())))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the archive to a file instead of stdout")
	return cmd
}
