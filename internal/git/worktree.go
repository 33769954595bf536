package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// LocalChanges flags uncommitted work. Untracked files are not counted.
type LocalChanges struct {
	HasWorktree bool
	HasStaged   bool
}

// snapshot returns the content of path in one side of a diff and whether
// the path exists there.
type snapshot func(path string) ([]byte, bool, error)

func staged(st *gitlib.FileStatus) bool {
	return st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked
}

func unstaged(st *gitlib.FileStatus) bool {
	return st.Worktree != gitlib.Unmodified && st.Worktree != gitlib.Untracked
}

// WorktreeDiff diffs HEAD against the index when cached is set, otherwise
// the index against the files on disk. A clean side yields a Detail
// without changes.
func (s *Service) WorktreeDiff(cached bool) (Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.statusLocked()
	if err != nil {
		return Detail{}, err
	}
	keep := unstaged
	if cached {
		keep = staged
	}
	var paths []string
	for path, st := range status {
		if keep(st) {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return Detail{}, nil
	}
	slices.Sort(paths)

	idx, err := s.repo.Storer.Index()
	if err != nil {
		return Detail{}, fmt.Errorf("read index: %w", err)
	}
	before, after := s.indexSnapshot(idx), s.diskSnapshot()
	if cached {
		tree, err := s.headTreeLocked()
		if err != nil {
			return Detail{}, err
		}
		before, after = treeSnapshot(tree), before
	}

	var d Detail
	var b strings.Builder
	for _, path := range paths {
		old, hadOld, err := before(path)
		if err != nil {
			return Detail{}, fmt.Errorf("read %s: %w", path, err)
		}
		cur, hasCur, err := after(path)
		if err != nil {
			return Detail{}, fmt.Errorf("read %s: %w", path, err)
		}
		if hadOld == hasCur && bytes.Equal(old, cur) {
			continue
		}
		if err := writeFileDiff(&b, path, old, cur, hadOld, hasCur); err != nil {
			return Detail{}, err
		}
		d.Files = append(d.Files, path)
	}
	d.Patch = b.String()
	return d, nil
}

// LocalChanges reports whether the index differs from HEAD or the worktree
// differs from the index.
func (s *Service) LocalChanges() (LocalChanges, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res LocalChanges
	status, err := s.statusLocked()
	if err != nil {
		return res, err
	}
	for _, st := range status {
		res.HasStaged = res.HasStaged || staged(st)
		res.HasWorktree = res.HasWorktree || unstaged(st)
	}
	return res, nil
}

func (s *Service) statusLocked() (gitlib.Status, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	return status, nil
}

func (s *Service) headTreeLocked() (*object.Tree, error) {
	head, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Repository.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return c.Tree()
}

func treeSnapshot(tree *object.Tree) snapshot {
	return func(path string) ([]byte, bool, error) {
		if tree == nil {
			return nil, false, nil
		}
		f, err := tree.File(path)
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return readBlob(&f.Blob)
	}
}

func (s *Service) indexSnapshot(idx *gitindex.Index) snapshot {
	return func(path string) ([]byte, bool, error) {
		e, err := idx.Entry(path)
		if errors.Is(err, gitindex.ErrEntryNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		blob, err := s.repo.BlobObject(e.Hash)
		if err != nil {
			return nil, false, err
		}
		return readBlob(blob)
	}
}

func (s *Service) diskSnapshot() snapshot {
	return func(path string) ([]byte, bool, error) {
		data, err := os.ReadFile(filepath.Join(s.repo.path, filepath.FromSlash(path)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}

func readBlob(blob *object.Blob) ([]byte, bool, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, false, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// binarySniff matches the prefix git inspects for NUL bytes.
const binarySniff = 8000

func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), binarySniff)], 0) >= 0
}

func writeFileDiff(b *strings.Builder, path string, old, cur []byte, hadOld, hasCur bool) error {
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", path, path)
	from, to := "a/"+path, "b/"+path
	switch {
	case !hadOld:
		b.WriteString("new file\n")
		from = "/dev/null"
	case !hasCur:
		b.WriteString("deleted file\n")
		to = "/dev/null"
	}
	if isBinary(old) || isBinary(cur) {
		b.WriteString("Binary files differ\n")
		return nil
	}
	return difflib.WriteUnifiedDiff(b, difflib.UnifiedDiff{
		A:        splitLines(old),
		B:        splitLines(cur),
		FromFile: from,
		ToFile:   to,
		Context:  diffContext,
	})
}

const diffContext = 3

// splitLines keeps line terminators and terminates a final partial line so
// every hunk line ends in a newline.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}
