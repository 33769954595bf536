// Package git reads commit history from a local repository through go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

const DefaultBatch = 1000

type Service struct {
	// mu guards the shared HEAD walker and the go-git storer.
	mu sync.Mutex

	repo repoState
	scan *walker
}

type repoState struct {
	*gitlib.Repository
	path string
}

func Open(repoPath string) (*Service, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Service{repo: repoState{path: root, Repository: repo}}, nil
}

func (s *Service) RepoPath() string {
	return s.repo.path
}

func (s *Service) String() string {
	return s.repo.path
}

// Commits returns page (1-based) of at most limit commits reachable from
// branch, newest first. An empty branch means HEAD and reuses the scan
// session so paging forward doesn't rewalk history.
func (s *Service) Commits(ctx context.Context, branch string, limit, page int) ([]lanegraph.Commit, error) {
	if limit <= 0 {
		limit = DefaultBatch
	}
	skip := (max(page, 1) - 1) * limit
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(branch) == "" {
		commits, _, _, err := s.ScanCommits(ctx, skip, limit)
		return commits, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	from, err := s.resolveLocked(branch)
	if err != nil {
		return nil, err
	}
	iter, err := s.repo.Log(&gitlib.LogOptions{From: from, Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()

	commits := make([]lanegraph.Commit, 0, limit)
	for seen := 0; len(commits) < limit; seen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		if seen < skip {
			continue
		}
		commits = append(commits, toCommit(c))
	}
	return commits, nil
}

// ScanCommits returns batch commits from HEAD after skipping skip, the HEAD
// name and whether more commits follow. Consecutive pages reuse one walk.
func (s *Service) ScanCommits(ctx context.Context, skip, batch int) ([]lanegraph.Commit, string, bool, error) {
	if batch <= 0 {
		batch = DefaultBatch
	}
	skip = max(skip, 0)
	s.mu.Lock()
	defer s.mu.Unlock()

	head, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		s.scan.close()
		s.scan = nil
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !s.scan.resumes(head, skip) {
		slog.Debug("restarting history walk", slog.String("head", refName(head)), slog.Int("skip", skip))
		s.scan.close()
		if s.scan, err = newWalker(s.repo.Repository, head); err != nil {
			return nil, "", false, err
		}
	}
	w := s.scan
	if err := w.advance(ctx, skip); err != nil {
		if err == io.EOF {
			return nil, w.tipName, false, nil
		}
		return nil, "", false, err
	}
	commits, err := w.take(ctx, batch)
	if err != nil {
		return nil, "", false, err
	}
	more, err := w.more()
	if err != nil {
		return nil, "", false, err
	}
	slog.Debug("history page read",
		slog.String("head", w.tipName),
		slog.Int("skip", skip),
		slog.Int("returned", len(commits)),
		slog.Bool("more", more),
	)
	return commits, w.tipName, more, nil
}

// CommitObject resolves a revision (full or abbreviated hash, branch, tag).
func (s *Service) CommitObject(rev string) (*object.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, err := s.resolveLocked(rev)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Repository.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	return c, nil
}

func (s *Service) resolveLocked(rev string) (plumbing.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return plumbing.ZeroHash, fmt.Errorf("revision not specified")
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return *hash, nil
}

func FormatCommitHeader(c *object.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	if len(c.ParentHashes) > 1 {
		b.WriteString("Merge:")
		for _, p := range c.ParentHashes {
			fmt.Fprintf(&b, " %s", p.String()[:7])
		}
		b.WriteByte('\n')
	}
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig object.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}

func toCommit(c *object.Commit) lanegraph.Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return lanegraph.Commit{
		SHA:     c.Hash.String(),
		Parents: parents,
		Info: lanegraph.Info{
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			When:    c.Author.When,
			Message: c.Message,
		},
	}
}

func refName(ref *plumbing.Reference) string {
	name := ref.Name().Short()
	if name == "" {
		name = ref.Name().String()
	}
	return name
}
