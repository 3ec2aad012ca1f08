// Package diff computes line-level differences between file revisions.
package diff

import "strings"

// Op classifies a line in an edit script.
type Op int

const (
	Equal  Op = iota // Line is unchanged between a and b.
	Insert           // Line is present in b only.
	Delete           // Line is present in a only.
)

// Line is one line of an edit script.
type Line struct {
	Op   Op
	Text string
}

// Lines computes the shortest line-level edit script that turns a into b.
func Lines(a, b []byte) []Line {
	return Myers(SplitLines(string(a)), SplitLines(string(b)))
}

// SplitLines splits s on newlines. A final newline does not produce an empty
// trailing line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Myers computes the shortest edit script transforming a into b with the
// Myers algorithm. It runs in O((N+M)*D) time, D being the edit distance.
func Myers(a, b []string) []Line {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		return uniform(Insert, b)
	case m == 0:
		return uniform(Delete, a)
	}

	max := n + m
	size := 2*max + 1
	v := make([]int, size)

	// trace[d] is a snapshot of v after edit distance d was explored.
	var trace [][]int
	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + max
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // down: insert
			} else {
				x = v[idx-1] + 1 // right: delete
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[idx] = x

			if x >= n && y >= m {
				trace = append(trace, append([]int(nil), v...))
				return backtrack(trace, a, b, d)
			}
		}
		trace = append(trace, append([]int(nil), v...))
	}
	return nil
}

func uniform(op Op, lines []string) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{Op: op, Text: l}
	}
	return out
}

// backtrack rebuilds the edit script from the trace, walking from the end
// point back to the origin.
func backtrack(trace [][]int, a, b []string, dFinal int) []Line {
	max := len(a) + len(b)
	x, y := len(a), len(b)

	var out []Line
	for d := dFinal; d > 0; d-- {
		k := x - y
		prev := trace[d-1]

		var prevK int
		if k == -d || (k != d && prev[k-1+max] < prev[k+1+max]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := prev[prevK+max]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			out = append(out, Line{Op: Equal, Text: a[x]})
		}
		if prevK == k-1 {
			x--
			out = append(out, Line{Op: Delete, Text: a[x]})
		} else {
			y--
			out = append(out, Line{Op: Insert, Text: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		out = append(out, Line{Op: Equal, Text: a[x]})
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
