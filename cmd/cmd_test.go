package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitlanes/internal/render"
)

func newRepo(t *testing.T) (string, []plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var hashes []plumbing.Hash
	for i, msg := range []string{"first commit", "second commit"} {
		sig := &object.Signature{Name: "Alice", Email: "alice@example.com", When: base.Add(time.Duration(i) * time.Minute)}
		h, err := wt.Commit(msg, &gitlib.CommitOptions{Author: sig, AllowEmptyCommits: true})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		hashes = append(hashes, h)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("topic"), hashes[0])
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("set ref: %v", err)
	}
	return dir, hashes
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "GITLANES_GITHUB_URL", "GITLANES_ADDR", "GITLANES_LIMIT", "GITLANES_THEME"} {
		t.Setenv(key, "")
	}
	full := append([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "-mode", "light"}, args...)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantName string
		wantRest []string
	}{
		{args: nil, wantName: "view", wantRest: nil},
		{args: []string{"/tmp/repo"}, wantName: "view", wantRest: []string{"/tmp/repo"}},
		{args: []string{"log", "-author", "."}, wantName: "log", wantRest: []string{"-author", "."}},
		{args: []string{"serve"}, wantName: "serve", wantRest: []string{}},
	}
	for _, tt := range tests {
		name, rest := splitCommand(tt.args)
		if name != tt.wantName || !slices.Equal(rest, tt.wantRest) {
			t.Fatalf("splitCommand(%q) = %q %q, want %q %q", tt.args, name, rest, tt.wantName, tt.wantRest)
		}
	}
}

func TestShowArgs(t *testing.T) {
	tests := []struct {
		args     []string
		worktree bool
		rev      string
		path     string
		wantErr  bool
	}{
		{rev: "HEAD"},
		{args: []string{"abc123"}, rev: "abc123"},
		{args: []string{"abc123", "/repo"}, rev: "abc123", path: "/repo"},
		{args: []string{"a", "b", "c"}, wantErr: true},
		{args: []string{"/repo"}, worktree: true, path: "/repo"},
		{args: []string{"/repo", "x"}, worktree: true, wantErr: true},
	}
	for _, tt := range tests {
		rev, path, err := showArgs(tt.args, tt.worktree)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("showArgs(%q, %v) expected error", tt.args, tt.worktree)
			}
			continue
		}
		if err != nil || rev != tt.rev || path != tt.path {
			t.Fatalf("showArgs(%q, %v) = %q %q %v, want %q %q", tt.args, tt.worktree, rev, path, err, tt.rev, tt.path)
		}
	}
}

func TestRunVersion(t *testing.T) {
	out, err := runCLI(t, "-version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("empty version output")
	}
}

func TestRunRejectsBadPage(t *testing.T) {
	if _, err := runCLI(t, "-page", "0", "log"); err == nil {
		t.Fatal("expected error for page 0")
	}
}

func TestRunLog(t *testing.T) {
	dir, hashes := newRepo(t)
	out, err := runCLI(t, "log", "-author", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if !strings.Contains(lines[0], render.ShortSHA(hashes[1].String())) || !strings.Contains(lines[0], "second commit") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[0], "HEAD -> master") || !strings.Contains(lines[0], "<Alice>") {
		t.Fatalf("missing labels or author in %q", lines[0])
	}
	if !strings.Contains(lines[1], "topic") {
		t.Fatalf("missing topic label in %q", lines[1])
	}
}

func TestRunLogLimit(t *testing.T) {
	dir, _ := newRepo(t)
	out, err := runCLI(t, "-limit", "1", "log", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
}

func TestRunJSON(t *testing.T) {
	dir, hashes := newRepo(t)
	out, err := runCLI(t, "json", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	doc, err := render.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(doc.Rows) != 2 || doc.Rows[0].Commit.SHA != hashes[1].String() || doc.Lanes != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestRunSVGToFile(t *testing.T) {
	dir, _ := newRepo(t)
	path := filepath.Join(t.TempDir(), "graph.svg")
	if _, err := runCLI(t, "svg", "-o", path, dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") || !strings.Contains(string(data), "second commit") {
		t.Fatalf("unexpected svg %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestRunSVGWatchNeedsOutput(t *testing.T) {
	dir, _ := newRepo(t)
	if _, err := runCLI(t, "svg", "-watch", dir); err == nil {
		t.Fatal("expected error without -o")
	}
}

func TestRunShow(t *testing.T) {
	dir, hashes := newRepo(t)
	out, err := runCLI(t, "show", hashes[0].String()[:8], dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "commit "+hashes[0].String()) || !strings.Contains(out, "first commit") {
		t.Fatalf("unexpected show output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("escape codes written to a non-terminal")
	}
}

func TestRunShowWorktreeClean(t *testing.T) {
	dir, _ := newRepo(t)
	out, err := runCLI(t, "show", "-worktree", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "No local changes.\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunBranches(t *testing.T) {
	dir, _ := newRepo(t)
	out, err := runCLI(t, "branches", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "* master\n  topic\n" {
		t.Fatalf("unexpected branches %q", out)
	}
}

func TestRunGitHubRejectsPath(t *testing.T) {
	if _, err := runCLI(t, "-github", "octo/repo", "log", "/some/path"); err == nil {
		t.Fatal("expected error for -github with a path")
	}
}

func TestRunUnknownRepo(t *testing.T) {
	if _, err := runCLI(t, "log", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestRunHelp(t *testing.T) {
	if _, err := runCLI(t, "log", "-h"); err != nil {
		t.Fatalf("help should not fail: %v", err)
	}
}

func TestRunBranchFlag(t *testing.T) {
	dir, hashes := newRepo(t)
	out, err := runCLI(t, "-branch", "topic", "log", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], render.ShortSHA(hashes[0].String())) {
		t.Fatalf("-branch topic should walk only topic history, got %q", out)
	}
}

func TestRunHelpNamesBranchDefault(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-h"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	help := stderr.String()
	if !strings.Contains(help, "(default: HEAD)") || strings.Contains(help, "all local refs") {
		t.Fatalf("unexpected -branch help:\n%s", help)
	}
}
