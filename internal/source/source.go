// Package source puts local repositories and GitHub behind one commit
// source and builds the lane graph of a page of history.
package source

import (
	"context"
	"log/slog"
	"strings"

	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/ghclient"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
)

// Source lists commits newest first, one page at a time.
type Source interface {
	String() string
	Commits(ctx context.Context, branch string, limit, page int) ([]lanegraph.Commit, error)
	BranchNames(ctx context.Context) ([]string, error)
	BranchLabels(ctx context.Context) (map[string][]string, error)
}

var (
	_ Source = (*Local)(nil)
	_ Source = (*ghclient.Repo)(nil)
)

// Local adapts a git.Service.
type Local struct {
	svc *git.Service
}

func NewLocal(svc *git.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) Service() *git.Service { return l.svc }

func (l *Local) String() string { return l.svc.RepoPath() }

func (l *Local) Commits(ctx context.Context, branch string, limit, page int) ([]lanegraph.Commit, error) {
	return l.svc.Commits(ctx, branch, limit, page)
}

func (l *Local) BranchNames(ctx context.Context) ([]string, error) {
	branches, _, err := l.svc.LocalBranchNames()
	return branches, err
}

func (l *Local) BranchLabels(ctx context.Context) (map[string][]string, error) {
	return l.svc.BranchLabels()
}

// Request selects a page of history.
type Request struct {
	Branch string
	Limit  int
	Page   int
}

// Graph is a page of commits with its lane layout.
type Graph struct {
	Commits []lanegraph.Commit
	Rows    []lanegraph.Assignment
	Labels  map[string][]string
}

// Load fetches one page from src and lays it out. A nil cache builds every
// time. Ref labels are best effort: failing to list them only logs.
func Load(ctx context.Context, src Source, cache *lanegraph.Cache, palette lanegraph.Palette, req Request) (Graph, error) {
	commits, err := src.Commits(ctx, req.Branch, req.Limit, req.Page)
	if err != nil {
		return Graph{}, err
	}
	labels, err := src.BranchLabels(ctx)
	if err != nil {
		slog.Warn("ref labels unavailable", slog.String("source", src.String()), slog.Any("error", err))
		labels = nil
	}
	g := Graph{
		Commits: commits,
		Rows:    cache.Build(commits, palette),
		Labels:  labels,
	}
	slog.Debug("graph loaded",
		slog.String("source", src.String()),
		slog.String("branch", req.Branch),
		slog.Int("page", req.Page),
		slog.Int("commits", len(commits)),
	)
	return g, nil
}

func (g Graph) Document(palette lanegraph.Palette) render.Document {
	return render.NewDocument(g.Rows, g.Commits, palette, g.Labels)
}

// RowLabels returns the per-row text drawn next to the graph.
func (g Graph) RowLabels() []string {
	out := make([]string, len(g.Commits))
	for i, c := range g.Commits {
		out[i] = render.RowLabel(c, g.Labels[c.SHA])
	}
	return out
}

// HeadRows marks rows carrying a HEAD label.
func (g Graph) HeadRows() map[int]bool {
	heads := map[int]bool{}
	for i, c := range g.Commits {
		for _, label := range g.Labels[c.SHA] {
			if label == "HEAD" || strings.HasPrefix(label, "HEAD ->") {
				heads[i] = true
			}
		}
	}
	return heads
}
