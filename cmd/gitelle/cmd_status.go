package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/odvcencio/gitelle/pkg/repo"
	"github.com/spf13/cobra"
)

var (
	stagedColor   = color.New(color.FgGreen).SprintFunc()
	unstagedColor = color.New(color.FgRed).SprintFunc()
)

func newStatusCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			rep, err := r.Status()
			if err != nil {
				return err
			}
			if short {
				printShortStatus(cmd.OutOrStdout(), rep)
				return nil
			}
			printLongStatus(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "give the output in the short format")
	return cmd
}

func printShortStatus(out io.Writer, rep *repo.Report) {
	for _, e := range rep.Entries {
		if e.IndexStatus == repo.StatusClean && e.WorkStatus == repo.StatusClean {
			continue
		}
		code := e.ShortCode()
		x, y := code[:1], code[1:]
		switch {
		case e.WorkStatus == repo.StatusUntracked && e.IndexStatus != repo.StatusDeleted:
			x = unstagedColor(x)
		default:
			x, y = stagedColor(x), unstagedColor(y)
		}
		fmt.Fprintf(out, "%s%s %s\n", x, y, e.Path)
	}
}

func printLongStatus(out io.Writer, rep *repo.Report) {
	if rep.Detached {
		fmt.Fprintf(out, "HEAD detached at %s\n", shortHash(string(rep.Head)))
	} else {
		fmt.Fprintf(out, "On branch %s\n", rep.Branch)
	}
	if rep.Head == "" {
		fmt.Fprintln(out, "\nNo commits yet")
	}

	byPath := make(map[string]repo.StatusEntry, len(rep.Entries))
	for _, e := range rep.Entries {
		byPath[e.Path] = e
	}

	var staged []string
	for _, e := range rep.Entries {
		switch e.IndexStatus {
		case repo.StatusNew:
			staged = append(staged, "new file:   "+e.Path)
		case repo.StatusModified:
			staged = append(staged, "modified:   "+e.Path)
		case repo.StatusDeleted:
			staged = append(staged, "deleted:    "+e.Path)
		}
	}
	var unstaged []string
	for _, p := range rep.Unstaged() {
		unstaged = append(unstaged, "modified:   "+p)
	}
	for _, p := range rep.Missing() {
		unstaged = append(unstaged, "deleted:    "+p)
	}
	untracked := rep.Untracked()

	section(out, "Changes to be committed:", staged, stagedColor)
	section(out, "Changes not staged for commit:", unstaged, unstagedColor)
	section(out, "Untracked files:", untracked, unstagedColor)

	switch {
	case rep.Clean():
		fmt.Fprintln(out, "\nnothing to commit, working tree clean")
	case len(staged) == 0 && len(unstaged) == 0:
		fmt.Fprintln(out, "\nnothing added to commit but untracked files present")
	case len(staged) == 0:
		fmt.Fprintln(out, "\nno changes added to commit")
	}
}

func section(out io.Writer, title string, lines []string, paint func(...any) string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	for _, l := range lines {
		fmt.Fprintf(out, "\t%s\n", paint(l))
	}
}
