package git

import (
	"slices"
	"strings"
	"testing"
)

func TestDiffHeaderPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		path string
		ok   bool
	}{
		{line: "diff --git a/foo.txt b/foo.txt", path: "foo.txt", ok: true},
		{line: "diff --git a/dir/x.go b/dir/x.go", path: "dir/x.go", ok: true},
		{line: "diff --git a/old name b/new name", path: "new name", ok: true},
		{line: "diff --git a/onlyone", path: "", ok: true},
		{line: "--- a/foo.txt", ok: false},
		{line: "", ok: false},
	}
	for _, tt := range tests {
		path, ok := DiffHeaderPath(tt.line)
		if path != tt.path || ok != tt.ok {
			t.Fatalf("DiffHeaderPath(%q) = %q %v, want %q %v", tt.line, path, ok, tt.path, tt.ok)
		}
	}
}

func TestCommitDetail(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.add("a.txt")
	root := r.commit("add a")
	r.write("a.txt", "one\ntwo\n")
	r.write("dir/b.txt", "bee\n")
	r.add("a.txt")
	r.add("dir/b.txt")
	second := r.commit("change a, add b", root)
	svc := r.open()

	d, err := svc.CommitDetail(second.String()[:10])
	if err != nil {
		t.Fatalf("CommitDetail: %v", err)
	}
	if !slices.Equal(d.Files, []string{"a.txt", "dir/b.txt"}) {
		t.Fatalf("files = %q", d.Files)
	}
	text := d.String()
	if !strings.HasPrefix(text, "commit "+second.String()+"\n") {
		t.Fatalf("missing header:\n%s", text)
	}
	if !strings.Contains(d.Patch, "+two") || !strings.Contains(d.Patch, "+bee") {
		t.Fatalf("missing patch lines:\n%s", d.Patch)
	}
	var headers []string
	for line := range strings.SplitSeq(d.Patch, "\n") {
		if path, ok := DiffHeaderPath(line); ok {
			headers = append(headers, path)
		}
	}
	if !slices.Equal(headers, d.Files) {
		t.Fatalf("patch headers %q do not match files %q", headers, d.Files)
	}

	rd, err := svc.CommitDetail(root.String())
	if err != nil {
		t.Fatalf("CommitDetail(root): %v", err)
	}
	if !slices.Equal(rd.Files, []string{"a.txt"}) || !strings.Contains(rd.Patch, "+one") {
		t.Fatalf("unexpected root detail %q:\n%s", rd.Files, rd.Patch)
	}

	if _, err := svc.CommitDetail("deadbeef"); err == nil {
		t.Fatalf("expected error for unknown revision")
	}
}

func TestCommitDetailEmptyCommit(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	r.write("a.txt", "one\n")
	r.add("a.txt")
	base := r.commit("add a")
	empty := r.commit("nothing", base)

	d, err := r.open().CommitDetail(empty.String())
	if err != nil {
		t.Fatalf("CommitDetail: %v", err)
	}
	if d.HasChanges() || d.Patch != "" {
		t.Fatalf("expected no changes, got %+v", d)
	}
	if text := d.String(); !strings.HasSuffix(text, "\nNo file level changes.\n") || !strings.Contains(text, "nothing") {
		t.Fatalf("unexpected text:\n%s", text)
	}
}
