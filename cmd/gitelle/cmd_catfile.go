package main

import (
	"fmt"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType bool

	cmd := &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "Print the content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := r.Store.ResolvePrefix(args[0])
			if err != nil {
				return err
			}
			obj, err := r.Store.ReadObject(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType {
				fmt.Fprintln(out, obj.Kind())
				return nil
			}
			switch o := obj.(type) {
			case *object.Blob:
				_, err = out.Write(o.Data)
			case *object.Tree:
				for _, e := range o.Entries {
					fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, e.Kind, e.Hash, e.Name)
				}
			case *object.Commit:
				_, err = out.Write(object.Encode(o))
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object kind instead of its content")
	return cmd
}
