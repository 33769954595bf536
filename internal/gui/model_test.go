package gui

import (
	"strings"
	"testing"
	"time"

	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
	"github.com/thiagokokada/gitlanes/internal/source"
	"github.com/thiagokokada/gitlanes/internal/theme"
)

func TestRowAtY(t *testing.T) {
	t.Parallel()

	g := render.Geometry{RowHeight: 20}
	tests := []struct {
		y, rows, want int
	}{
		{-1, 3, -1},
		{0, 3, 0},
		{19, 3, 0},
		{20, 3, 1},
		{59, 3, 2},
		{60, 3, -1},
		{5, 0, -1},
	}
	for _, tt := range tests {
		if got := rowAtY(tt.y, g, tt.rows); got != tt.want {
			t.Fatalf("rowAtY(%d, rows=%d) = %d, want %d", tt.y, tt.rows, got, tt.want)
		}
	}
}

func TestPageAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, delta, count, limit, want int
	}{
		{1, -1, 50, 50, 1},
		{2, -1, 50, 50, 1},
		{1, 1, 50, 50, 2},
		{3, 1, 12, 50, 3},
		{3, -1, 12, 50, 2},
	}
	for _, tt := range tests {
		if got := pageAfter(tt.page, tt.delta, tt.count, tt.limit); got != tt.want {
			t.Fatalf("pageAfter(%d, %d, %d, %d) = %d, want %d", tt.page, tt.delta, tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestSettleLoad(t *testing.T) {
	t.Parallel()

	main1 := source.Request{Branch: "main", Limit: 100, Page: 1}
	main2 := source.Request{Branch: "main", Limit: 100, Page: 2}
	topic1 := source.Request{Branch: "topic", Limit: 100, Page: 1}
	tests := []struct {
		name              string
		done, want        source.Request
		pending           bool
		wantApply, reload bool
	}{
		{"current", main1, main1, false, true, false},
		{"current with reload queued", main1, main1, true, true, true},
		{"branch switched", main1, topic1, true, false, true},
		{"page moved", main1, main2, true, false, true},
		{"stale without flag", main2, main1, false, false, true},
	}
	for _, tt := range tests {
		apply, reload := settleLoad(tt.done, tt.want, tt.pending)
		if apply != tt.wantApply || reload != tt.reload {
			t.Fatalf("%s: settleLoad = %v, %v, want %v, %v", tt.name, apply, reload, tt.wantApply, tt.reload)
		}
	}
}

func TestReloadButtonLabel(t *testing.T) {
	t.Parallel()

	if got := reloadButtonLabel(false, false); got != "Reload" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := reloadButtonLabel(true, true); got != "Reload (Auto On)" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := reloadButtonLabel(true, false); got != "Reload (Auto Off)" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestStatusSummary(t *testing.T) {
	t.Parallel()

	got := statusSummary("/repo", "", 2, 10, git.LocalChanges{HasStaged: true})
	want := "10 commits on HEAD, page 2 - /repo (local changes: staged)"
	if got != want {
		t.Fatalf("statusSummary = %q, want %q", got, want)
	}
	if got := statusSummary("o/r", "dev", 1, 0, git.LocalChanges{}); got != "0 commits on dev, page 1 - o/r" {
		t.Fatalf("statusSummary = %q", got)
	}
}

func TestTkThemeName(t *testing.T) {
	t.Parallel()

	if got := tkThemeName(theme.DarkPalette); got != "azure dark" {
		t.Fatalf("dark theme = %q", got)
	}
	if got := tkThemeName(theme.LightPalette); got != "azure light" {
		t.Fatalf("light theme = %q", got)
	}
}

func TestDiffLineTag(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"diff --git a/x b/x": "diffHeader",
		"+added":             "diffAdd",
		"-removed":           "diffDel",
		"+++ b/x":            "",
		"--- a/x":            "",
		" context":           "",
	}
	for line, want := range tests {
		if got := diffLineTag(line); got != want {
			t.Fatalf("diffLineTag(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestRemoteDetail(t *testing.T) {
	t.Parallel()

	c := lanegraph.Commit{
		SHA:     "0123456789abcdef",
		Parents: []string{"aaaaaaaaaa", "bbbbbbbbbb"},
		Info: lanegraph.Info{
			Author:   "Alice",
			Email:    "alice@example.com",
			When:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Message:  "Merge pull request\n\nbody",
			URL:      "https://github.com/o/r/commit/0123456789abcdef",
			Verified: true,
		},
	}
	got := remoteDetail(c)
	for _, want := range []string{
		"commit 0123456789abcdef\n",
		"Merge: aaaaaaa bbbbbbb\n",
		"Author: Alice <alice@example.com>\n",
		"Date:   2024-01-02 03:04:05 +0000\n",
		"Signature: verified\n",
		"URL:    https://github.com/o/r/commit/0123456789abcdef\n",
		"    Merge pull request\n    \n    body\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("remoteDetail missing %q:\n%s", want, got)
		}
	}
}

func TestLabelStyleFor(t *testing.T) {
	t.Parallel()

	if s := labelStyleFor(false, "HEAD -> main", "#00cc00"); s.fill != "#ffd75e" {
		t.Fatalf("HEAD style = %+v", s)
	}
	if s := labelStyleFor(true, "tag: v1", "#00cc00"); s.fill != "#3a3a3a" {
		t.Fatalf("tag style = %+v", s)
	}
	if s := labelStyleFor(false, "origin/main", "#00cc00"); s.out != "#2563eb" {
		t.Fatalf("remote style = %+v", s)
	}
	if s := labelStyleFor(false, "feature", "#cc0000"); s.out != "#cc0000" {
		t.Fatalf("branch style should outline with the lane color: %+v", s)
	}
}

func TestRowText(t *testing.T) {
	t.Parallel()

	c := lanegraph.Commit{SHA: "0123456789", Info: lanegraph.Info{Message: "Fix it\nmore", Author: "Bob"}}
	if got := rowText(c); got != "0123456  Fix it  <Bob>" {
		t.Fatalf("rowText = %q", got)
	}
	if got := rowText(lanegraph.Commit{SHA: "abc"}); got != "abc" {
		t.Fatalf("rowText = %q", got)
	}
}
