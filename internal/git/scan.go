package git

import (
	"context"
	"fmt"
	"io"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

// walker is a resumable walk of HEAD history. pos counts the commits handed
// out so far; a caller asking for pos continues where the last page ended.
type walker struct {
	tip     plumbing.Hash
	tipName string
	iter    object.CommitIter
	peeked  *object.Commit
	ended   bool
	pos     int
}

func newWalker(repo *gitlib.Repository, head *plumbing.Reference) (*walker, error) {
	iter, err := repo.Log(&gitlib.LogOptions{From: head.Hash(), Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	return &walker{tip: head.Hash(), tipName: refName(head), iter: iter}, nil
}

// resumes reports whether w can serve a page starting at skip for head.
func (w *walker) resumes(head *plumbing.Reference, skip int) bool {
	return w != nil && w.tip == head.Hash() && w.pos == skip
}

func (w *walker) pull() (*object.Commit, error) {
	if c := w.peeked; c != nil {
		w.peeked = nil
		w.pos++
		return c, nil
	}
	if w.ended {
		return nil, io.EOF
	}
	c, err := w.iter.Next()
	if err == io.EOF {
		w.ended = true
	}
	if err != nil {
		return nil, err
	}
	w.pos++
	return c, nil
}

// more reads one commit ahead without consuming it.
func (w *walker) more() (bool, error) {
	if w.peeked != nil {
		return true, nil
	}
	if w.ended {
		return false, nil
	}
	c, err := w.iter.Next()
	if err == io.EOF {
		w.ended = true
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("iterate commits: %w", err)
	}
	w.peeked = c
	return true, nil
}

// advance drops commits until pos reaches target.
func (w *walker) advance(ctx context.Context, target int) error {
	for w.pos < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.pull(); err != nil {
			return err
		}
	}
	return nil
}

// take collects up to n commits, stopping early at the end of history.
func (w *walker) take(ctx context.Context, n int) ([]lanegraph.Commit, error) {
	out := make([]lanegraph.Commit, 0, n)
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := w.pull()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		out = append(out, toCommit(c))
	}
	return out, nil
}

func (w *walker) close() {
	if w == nil || w.iter == nil {
		return
	}
	w.iter.Close()
	w.iter = nil
	w.peeked = nil
	w.ended = true
}
