package diff

import (
	"bytes"
	"fmt"
	"io"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Hunk is a contiguous region of an edit script with its line ranges.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Hunks groups an edit script into hunks, keeping up to context unchanged
// lines around each change and merging hunks whose context overlaps.
func Hunks(lines []Line, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	type span struct{ start, end int }
	var spans []span
	for i, l := range lines {
		if l.Op == Equal {
			continue
		}
		start := max(i-context, 0)
		end := min(i+context+1, len(lines))
		if n := len(spans); n > 0 && start <= spans[n-1].end {
			spans[n-1].end = max(spans[n-1].end, end)
			continue
		}
		spans = append(spans, span{start, end})
	}

	hunks := make([]Hunk, 0, len(spans))
	oldLine, newLine, pos := 1, 1, 0
	advance := func(l Line) {
		if l.Op != Insert {
			oldLine++
		}
		if l.Op != Delete {
			newLine++
		}
	}
	for _, sp := range spans {
		for ; pos < sp.start; pos++ {
			advance(lines[pos])
		}
		h := Hunk{OldStart: oldLine, NewStart: newLine, Lines: lines[sp.start:sp.end]}
		for ; pos < sp.end; pos++ {
			l := lines[pos]
			if l.Op != Insert {
				h.OldCount++
			}
			if l.Op != Delete {
				h.NewCount++
			}
			advance(l)
		}
		// An empty side is addressed by the line before it.
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// Unified writes a unified diff of one file. Nothing is written when before
// and after are identical. A nil before or after stands for a file that does
// not exist on that side.
func Unified(w io.Writer, path string, before, after []byte, context int) error {
	if bytes.Equal(before, after) && (before == nil) == (after == nil) {
		return nil
	}

	oldName, newName := "a/"+path, "b/"+path
	if before == nil {
		oldName = "/dev/null"
	}
	if after == nil {
		newName = "/dev/null"
	}
	if _, err := fmt.Fprintf(w, "diff --gitelle a/%s b/%s\n--- %s\n+++ %s\n", path, path, oldName, newName); err != nil {
		return err
	}

	for _, h := range Hunks(Lines(before, after), context) {
		if _, err := fmt.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount); err != nil {
			return err
		}
		for _, l := range h.Lines {
			prefix := " "
			switch l.Op {
			case Insert:
				prefix = "+"
			case Delete:
				prefix = "-"
			}
			if _, err := fmt.Fprintf(w, "%s%s\n", prefix, l.Text); err != nil {
				return err
			}
		}
	}
	return nil
}
