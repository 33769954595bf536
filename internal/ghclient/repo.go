package ghclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

// ParseRepo accepts "owner/name", an https clone/browse URL or an scp-style
// ssh remote.
func ParseRepo(raw string) (owner, name string, err error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "git@"):
		_, path, ok := strings.Cut(s, ":")
		if !ok {
			return "", "", fmt.Errorf("invalid github remote %q", raw)
		}
		s = path
	case strings.Contains(s, "://"):
		u, perr := url.Parse(s)
		if perr != nil {
			return "", "", fmt.Errorf("invalid github url %q: %w", raw, perr)
		}
		s = u.Path
	}
	s = strings.Trim(strings.TrimSuffix(strings.Trim(s, "/"), ".git"), "/")
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid github repository %q, expected owner/name", raw)
	}
	return parts[0], parts[1], nil
}

// Repo binds a client to one repository.
type Repo struct {
	client *Client
	Owner  string
	Name   string
}

func (c *Client) Repo(owner, name string) *Repo {
	return &Repo{client: c, Owner: owner, Name: name}
}

func (r *Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Commits returns page (1-based) of at most limit commits from branch.
func (r *Repo) Commits(ctx context.Context, branch string, limit, page int) ([]lanegraph.Commit, error) {
	return r.client.CommitRange(ctx, r.Owner, r.Name, branch, (max(page, 1)-1)*limit, limit)
}

func (r *Repo) Branches(ctx context.Context) ([]Branch, error) {
	return r.client.ListBranches(ctx, r.Owner, r.Name)
}

// BranchNames lists branch names in API order.
func (r *Repo) BranchNames(ctx context.Context) ([]string, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

// BranchLabels maps branch head SHAs to the names pointing at them.
func (r *Repo) BranchLabels(ctx context.Context) (map[string][]string, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return nil, err
	}
	labels := make(map[string][]string, len(branches))
	for _, b := range branches {
		if b.SHA == "" || b.Name == "" {
			continue
		}
		labels[b.SHA] = append(labels[b.SHA], b.Name)
	}
	return labels, nil
}
