package git

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

// Ref is a named pointer at a commit. Name is the short form, such as
// main, origin/main or v1.
type Ref struct {
	Hash string
	Kind RefKind
	Name string
}

// Refs lists branches, remote branches and tags. Tags are peeled to the
// commit they name.
func (s *Service) Refs() ([]Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refsLocked()
}

func (s *Service) refsLocked() ([]Ref, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		short := name.Short()
		hash := ref.Hash()
		var kind RefKind
		switch {
		case name.IsBranch():
			kind = RefKindBranch
		case name.IsRemote():
			if strings.HasSuffix(short, "/HEAD") {
				return nil
			}
			kind = RefKindRemoteBranch
		case name.IsTag():
			kind = RefKindTag
			if peeled, ok := s.peelTagCommitHash(hash); ok {
				hash = peeled
			}
		default:
			return nil
		}
		refs = append(refs, Ref{Hash: hash.String(), Kind: kind, Name: short})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(refs, func(a, b Ref) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return refs, nil
}

// BranchLabels maps commit hashes to decorations such as "HEAD -> main",
// "origin/main" and "tag: v1".
func (s *Service) BranchLabels() (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels := map[string][]string{}
	refs, err := s.refsLocked()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		label := ref.Name
		if ref.Kind == RefKindTag {
			label = fmt.Sprintf("tag: %s", ref.Name)
		}
		labels[ref.Hash] = append(labels[ref.Hash], label)
	}

	head, err := s.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return labels, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	key := head.Hash().String()
	label := "HEAD"
	if head.Name().IsBranch() {
		branch := head.Name().Short()
		label = fmt.Sprintf("HEAD -> %s", branch)
		// The HEAD label already names the branch.
		labels[key] = slices.DeleteFunc(labels[key], func(l string) bool { return l == branch })
	}
	labels[key] = append([]string{label}, labels[key]...)
	return labels, nil
}

// LocalBranchNames returns the sorted local branch names and the current
// HEAD name ("HEAD" when detached or unborn).
func (s *Service) LocalBranchNames() (branches []string, headName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs, err := s.refsLocked()
	if err != nil {
		return nil, "", err
	}
	for _, ref := range refs {
		if ref.Kind == RefKindBranch {
			branches = append(branches, ref.Name)
		}
	}
	slices.Sort(branches)
	branches = slices.Compact(branches)

	headName = "HEAD"
	if head, err := s.repo.Head(); err == nil && head.Name().IsBranch() {
		headName = head.Name().Short()
	}
	return branches, headName, nil
}

func (s *Service) peelTagCommitHash(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a tag object.
	if _, err := s.repo.Repository.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := s.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}
