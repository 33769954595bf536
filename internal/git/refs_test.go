package git

import (
	"slices"
	"testing"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestBranchLabels(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	c1 := r.commit("root")
	c2 := r.commit("second", c1)
	r.setRef("refs/heads/topic", c1)
	r.setRef("refs/remotes/origin/master", c1)
	r.setRef("refs/remotes/origin/HEAD", c1)
	if _, err := r.repo.CreateTag("v1", c1, nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if _, err := r.repo.CreateTag("v2", c2, &gitlib.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Alice", Email: "alice@example.com", When: baseTime},
		Message: "release",
	}); err != nil {
		t.Fatalf("CreateTag annotated: %v", err)
	}

	labels, err := r.open().BranchLabels()
	if err != nil {
		t.Fatalf("BranchLabels: %v", err)
	}
	if got := labels[c2.String()]; !slices.Equal(got, []string{"HEAD -> master", "tag: v2"}) {
		t.Fatalf("labels[c2] = %v", got)
	}
	if got := labels[c1.String()]; !slices.Equal(got, []string{"topic", "origin/master", "tag: v1"}) {
		t.Fatalf("labels[c1] = %v", got)
	}
}

func TestBranchLabels_DetachedHead(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	c1 := r.commit("root")
	r.commit("second", c1)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, c1)); err != nil {
		t.Fatalf("detach: %v", err)
	}
	labels, err := r.open().BranchLabels()
	if err != nil {
		t.Fatalf("BranchLabels: %v", err)
	}
	if got := labels[c1.String()]; len(got) == 0 || got[0] != "HEAD" {
		t.Fatalf("labels[c1] = %v", got)
	}
}

func TestLocalBranchNames(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	c1 := r.commit("root")
	r.setRef("refs/heads/zeta", c1)
	r.setRef("refs/heads/alpha", c1)
	r.setRef("refs/remotes/origin/beta", c1)

	branches, head, err := r.open().LocalBranchNames()
	if err != nil {
		t.Fatalf("LocalBranchNames: %v", err)
	}
	if !slices.Equal(branches, []string{"alpha", "master", "zeta"}) {
		t.Fatalf("branches = %v", branches)
	}
	if head != "master" {
		t.Fatalf("head = %q", head)
	}
}

func TestLocalBranchNames_Unborn(t *testing.T) {
	t.Parallel()

	branches, head, err := newTestRepo(t).open().LocalBranchNames()
	if err != nil {
		t.Fatalf("LocalBranchNames: %v", err)
	}
	if len(branches) != 0 || head != "HEAD" {
		t.Fatalf("branches=%v head=%q", branches, head)
	}
}
