// Package lanegraph assigns commits of a reverse-chronological log to
// rendering lanes, the way `git log --graph` draws history.
package lanegraph

import (
	"slices"
	"strings"
	"time"
)

// Commit is a single input record. Only SHA and Parents drive the layout;
// Info is carried along for display.
type Commit struct {
	SHA     string   `json:"sha"`
	Parents []string `json:"parents,omitempty"`
	Info    Info     `json:"info"`
}

type Info struct {
	Author   string    `json:"author,omitempty"`
	Email    string    `json:"email,omitempty"`
	When     time.Time `json:"when,omitzero"`
	Message  string    `json:"message,omitempty"`
	URL      string    `json:"url,omitempty"`
	Verified bool      `json:"verified,omitempty"`
}

// Summary returns the first line of the commit message.
func (i Info) Summary() string {
	line, _, _ := strings.Cut(strings.TrimSpace(i.Message), "\n")
	return line
}

// Connection is an edge from a commit's lane to the lane of one of its
// parents in the row below. IsMerge is set on every edge to a second or
// later parent, and also on a first-parent edge that joins a different lane
// already waiting for that parent. A first-parent edge that continues in
// its own lane has IsMerge false. Assignment.IsMerge, by contrast, only
// reports whether the commit has more than one parent.
type Connection struct {
	FromLane int    `json:"fromLane"`
	ToLane   int    `json:"toLane"`
	Color    string `json:"color"`
	IsMerge  bool   `json:"isMerge"`
}

// Assignment is the render descriptor of one commit row.
type Assignment struct {
	SHA         string       `json:"sha"`
	Lane        int          `json:"lane"`
	Color       string       `json:"color"`
	IsMerge     bool         `json:"isMerge"`
	NextLanes   []int        `json:"nextLanes"`
	Connections []Connection `json:"connections"`
}

// Build lays out commits using DefaultPalette.
func Build(commits []Commit) []Assignment {
	return BuildWithPalette(commits, DefaultPalette)
}

// BuildWithPalette lays out commits, newest first, in a single forward pass.
// The result has the same length and order as commits.
func BuildWithPalette(commits []Commit, palette Palette) []Assignment {
	rows := make([]Assignment, 0, len(commits))
	if len(commits) == 0 {
		return rows
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	b := &laneBuilder{palette: palette, lanes: []string{commits[0].SHA}}
	for _, c := range commits {
		rows = append(rows, b.row(c))
	}
	return rows
}

// laneBuilder holds the active lane table: lanes[i] is the SHA expected to
// show up on lane i in a later row, "" when the lane is free.
type laneBuilder struct {
	palette Palette
	lanes   []string
}

func (b *laneBuilder) row(c Commit) Assignment {
	cur := laneIndex(b.lanes, c.SHA)
	if cur == -1 {
		b.lanes, cur = claimLane(b.lanes, c.SHA)
	}
	color := b.palette.Color(cur)

	next := slices.Clone(b.lanes)
	next[cur] = ""

	var conns []Connection
	if len(c.Parents) > 0 {
		first := c.Parents[0]
		to := laneIndex(next, first)
		if to == -1 {
			to = cur
			next[cur] = first
		}
		// Joining a lane that already expects the parent merges the two paths.
		conns = append(conns, Connection{FromLane: cur, ToLane: to, Color: color, IsMerge: to != cur})
	}
	for _, parent := range c.Parents[min(1, len(c.Parents)):] {
		to := laneIndex(next, parent)
		if to == -1 {
			next, to = claimLane(next, parent)
		}
		conns = append(conns, Connection{FromLane: cur, ToLane: to, Color: b.palette.Color(to), IsMerge: true})
	}

	nextLanes := []int{}
	for i, sha := range next {
		if sha != "" {
			nextLanes = append(nextLanes, i)
		}
	}
	if conns == nil {
		conns = []Connection{}
	}
	b.lanes = next
	return Assignment{
		SHA:         c.SHA,
		Lane:        cur,
		Color:       color,
		IsMerge:     len(c.Parents) > 1,
		NextLanes:   nextLanes,
		Connections: conns,
	}
}

func laneIndex(lanes []string, sha string) int {
	if sha == "" {
		return -1
	}
	return slices.Index(lanes, sha)
}

// claimLane stores sha in the lowest free lane, growing the table when every
// lane is taken.
func claimLane(lanes []string, sha string) ([]string, int) {
	if idx := slices.Index(lanes, ""); idx != -1 {
		lanes[idx] = sha
		return lanes, idx
	}
	return append(lanes, sha), len(lanes)
}
