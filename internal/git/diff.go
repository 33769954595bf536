package git

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Detail is a header plus a unified patch. Files lists the changed paths in
// patch order.
type Detail struct {
	Header string
	Files  []string
	Patch  string
}

func (d Detail) HasChanges() bool {
	return len(d.Files) > 0
}

func (d Detail) String() string {
	var b strings.Builder
	if d.Header != "" {
		b.WriteString(d.Header)
		if !d.HasChanges() {
			b.WriteString("\nNo file level changes.\n")
		}
	}
	b.WriteString(d.Patch)
	return b.String()
}

// CommitDetail describes rev and its patch against the first parent, or
// against the empty tree for root commits.
func (s *Service) CommitDetail(rev string) (Detail, error) {
	c, err := s.CommitObject(rev)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Header: FormatCommitHeader(c)}
	patch, err := commitPatch(c)
	if err != nil {
		return Detail{}, fmt.Errorf("diff %s: %w", c.Hash, err)
	}
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		switch {
		case to != nil:
			d.Files = append(d.Files, to.Path())
		case from != nil:
			d.Files = append(d.Files, from.Path())
		}
	}
	if !d.HasChanges() {
		return d, nil
	}
	var buf bytes.Buffer
	if err := diff.NewUnifiedEncoder(&buf, diff.DefaultContextLines).Encode(patch); err != nil {
		return Detail{}, fmt.Errorf("encode patch: %w", err)
	}
	d.Patch = buf.String()
	return d, nil
}

func commitPatch(c *object.Commit) (*object.Patch, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var base *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if base, err = parent.Tree(); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTree(base, tree)
	if err != nil {
		return nil, err
	}
	return changes.Patch()
}

// DiffHeaderPath reports whether line opens a file in a git patch and
// returns the post-image path.
func DiffHeaderPath(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "diff --git ")
	if !ok {
		return "", false
	}
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+len(" b/"):], true
	}
	return "", true
}
