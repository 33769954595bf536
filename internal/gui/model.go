package gui

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
	"github.com/thiagokokada/gitlanes/internal/source"
	"github.com/thiagokokada/gitlanes/internal/theme"
)

// rowAtY maps a canvas y coordinate to a row index, -1 outside the rows.
func rowAtY(y int, g render.Geometry, rows int) int {
	g = g.Normalize()
	if y < 0 {
		return -1
	}
	row := y / g.RowHeight
	if row >= rows {
		return -1
	}
	return row
}

// pageAfter returns the page reached by moving delta pages, or the current
// page when the move would leave the history. A short page is the last one.
func pageAfter(page, delta, count, limit int) int {
	next := page + delta
	if next < 1 {
		return page
	}
	if delta > 0 && count < limit {
		return page
	}
	return next
}

// settleLoad decides what happens when the load built from done finishes
// while the view now asks for want. A result is applied only when it still
// matches the view; another load starts when one was requested meanwhile or
// the result was stale.
func settleLoad(done, want source.Request, pending bool) (apply, reload bool) {
	apply = done == want
	return apply, pending || !apply
}

func reloadButtonLabel(configured, enabled bool) string {
	if !configured {
		return "Reload"
	}
	state := "Off"
	if enabled {
		state = "On"
	}
	return fmt.Sprintf("Reload (Auto %s)", state)
}

func statusSummary(src, branch string, page, count int, changes git.LocalChanges) string {
	if branch == "" {
		branch = "HEAD"
	}
	s := fmt.Sprintf("%d commits on %s, page %d - %s", count, branch, page, src)
	var local []string
	if changes.HasWorktree {
		local = append(local, "unstaged")
	}
	if changes.HasStaged {
		local = append(local, "staged")
	}
	if len(local) > 0 {
		s += fmt.Sprintf(" (local changes: %s)", strings.Join(local, ", "))
	}
	return s
}

func tkThemeName(p theme.Palette) string {
	if p.IsDark() {
		return "azure dark"
	}
	return "azure light"
}

func diffLineTag(line string) string {
	switch {
	case strings.HasPrefix(line, "diff --git"):
		return "diffHeader"
	case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
		return "diffAdd"
	case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
		return "diffDel"
	default:
		return ""
	}
}

// remoteDetail formats what is known about a commit without a local object
// database to diff against.
func remoteDetail(c lanegraph.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.SHA)
	if len(c.Parents) > 1 {
		b.WriteString("Merge:")
		for _, p := range c.Parents {
			fmt.Fprintf(&b, " %s", render.ShortSHA(p))
		}
		b.WriteByte('\n')
	}
	if c.Info.Author != "" {
		fmt.Fprintf(&b, "Author: %s <%s>\n", c.Info.Author, c.Info.Email)
	}
	if !c.Info.When.IsZero() {
		fmt.Fprintf(&b, "Date:   %s\n", c.Info.When.Format("2006-01-02 15:04:05 -0700"))
	}
	if c.Info.Verified {
		b.WriteString("Signature: verified\n")
	}
	if c.Info.URL != "" {
		fmt.Fprintf(&b, "URL:    %s\n", c.Info.URL)
	}
	b.WriteByte('\n')
	for line := range strings.SplitSeq(strings.TrimRight(c.Info.Message, "\n"), "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

type labelStyle struct {
	fill string
	out  string
	text string
}

func labelStyleFor(dark bool, label string, nodeColor string) labelStyle {
	switch {
	case strings.HasPrefix(label, "HEAD"):
		if dark {
			return labelStyle{fill: "#b58900", out: "#8a6a00", text: "#111111"}
		}
		return labelStyle{fill: "#ffd75e", out: "#c9a300", text: "#111111"}
	case strings.HasPrefix(strings.ToLower(label), "tag:"):
		if dark {
			return labelStyle{fill: "#3a3a3a", out: "#6b6b6b", text: "#eaeaea"}
		}
		return labelStyle{fill: "#e6e6e6", out: "#8a8a8a", text: "#111111"}
	case strings.Contains(label, "/"):
		if dark {
			return labelStyle{fill: "#253446", out: "#4fa3ff", text: "#eaeaea"}
		}
		return labelStyle{fill: "#dbeafe", out: "#2563eb", text: "#111111"}
	}
	if dark {
		return labelStyle{fill: "#1f3b2a", out: nodeColor, text: "#eaeaea"}
	}
	return labelStyle{fill: "#dff5de", out: nodeColor, text: "#111111"}
}

// rowText is the plain text drawn after a row's ref chips.
func rowText(c lanegraph.Commit) string {
	s := render.ShortSHA(c.SHA)
	if summary := c.Info.Summary(); summary != "" {
		s += "  " + summary
	}
	if c.Info.Author != "" {
		s += "  <" + c.Info.Author + ">"
	}
	return s
}
