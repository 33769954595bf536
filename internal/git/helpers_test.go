package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	tick int
}

func newTestRepo(t *testing.T) *testRepo {
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
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) write(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}

func (r *testRepo) add(name string) {
	r.t.Helper()
	if _, err := r.wt.Add(name); err != nil {
		r.t.Fatalf("add %s: %v", name, err)
	}
}

// commit records a commit one minute after the previous one so committer
// time ordering is stable.
func (r *testRepo) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	r.tick++
	sig := &object.Signature{Name: "Alice", Email: "alice@example.com", When: baseTime.Add(time.Duration(r.tick) * time.Minute)}
	hash, err := r.wt.Commit(msg, &gitlib.CommitOptions{
		Author:            sig,
		AllowEmptyCommits: true,
		Parents:           parents,
	})
	if err != nil {
		r.t.Fatalf("commit %q: %v", msg, err)
	}
	return hash
}

func (r *testRepo) setRef(name string, hash plumbing.Hash) {
	r.t.Helper()
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), hash)); err != nil {
		r.t.Fatalf("set ref %s: %v", name, err)
	}
}

func (r *testRepo) open() *Service {
	r.t.Helper()
	svc, err := Open(r.dir)
	if err != nil {
		r.t.Fatalf("Open: %v", err)
	}
	return svc
}
