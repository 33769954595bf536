package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

const shortSHALen = 7

func ShortSHA(sha string) string {
	if len(sha) > shortSHALen {
		return sha[:shortSHALen]
	}
	return sha
}

// RowLabel formats the one-line description shown next to a graph row.
func RowLabel(c lanegraph.Commit, refs []string) string {
	var b strings.Builder
	b.WriteString(ShortSHA(c.SHA))
	if len(refs) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(refs, ", "))
	}
	if summary := c.Info.Summary(); summary != "" {
		b.WriteByte(' ')
		b.WriteString(summary)
	}
	return b.String()
}

// TextOptions controls WriteText output.
type TextOptions struct {
	// MaxCols caps the graph column; zero means unlimited.
	MaxCols int
	// Labels maps a commit SHA to its ref labels.
	Labels map[string][]string
	// Author appends the author name to every line.
	Author bool
}

// WriteText prints rows the way `git log --graph --oneline` does, one line
// per commit. commits must be the input rows were built from.
func WriteText(w io.Writer, rows []lanegraph.Assignment, commits []lanegraph.Commit, opts TextOptions) error {
	graphs := make([]string, len(rows))
	width := 0
	for i := range rows {
		graphs[i] = lanegraph.Line(lanegraph.Tokens(rows, i), opts.MaxCols)
		width = max(width, len(graphs[i]))
	}
	bw := bufio.NewWriter(w)
	for i, row := range rows {
		var c lanegraph.Commit
		if i < len(commits) {
			c = commits[i]
		} else {
			c.SHA = row.SHA
		}
		line := fmt.Sprintf("%-*s  %s", width, graphs[i], RowLabel(c, opts.Labels[c.SHA]))
		if opts.Author && c.Info.Author != "" {
			line += fmt.Sprintf(" <%s>", c.Info.Author)
		}
		bw.WriteString(strings.TrimRight(line, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
