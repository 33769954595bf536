// Package gui is the tk9.0 lane graph viewer.
package gui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
	"github.com/thiagokokada/gitlanes/internal/source"
	"github.com/thiagokokada/gitlanes/internal/theme"

	. "modernc.org/tk9.0"
	_ "modernc.org/tk9.0/themes/azure" // load theme
)

// RunConfig describes what the viewer shows and how.
type RunConfig struct {
	Source source.Source
	// Local enables commit diffs, worktree views and auto reload. Nil for
	// remote sources.
	Local    *git.Service
	Branch   string
	Limit    int
	Theme    theme.Palette
	Geometry render.Geometry
	Cache    *lanegraph.Cache

	AutoReload      bool
	SyntaxHighlight bool
}

type Controller struct {
	cfg   RunConfig
	src   source.Source
	local *git.Service
	pal   theme.Palette
	lanes lanegraph.Palette
	geom  render.Geometry

	branch   string
	page     int
	loading  bool
	graph    source.Graph
	scene    render.Scene
	selected int
	changes  git.LocalChanges

	// reloadPending records a reload requested while loading.
	reloadPending bool

	ui     appWidgets
	detail detailState
	watch  autoReloadState
}

func Run(cfg RunConfig) error {
	if cfg.Source == nil {
		return fmt.Errorf("no commit source")
	}
	if err := InitializeExtension("eval"); err != nil && err != AlreadyInitialized {
		return fmt.Errorf("init eval extension: %v", err)
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = theme.Resolve(theme.Auto)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = git.DefaultBatch
	}
	a := &Controller{
		cfg:      cfg,
		src:      cfg.Source,
		local:    cfg.Local,
		pal:      cfg.Theme,
		lanes:    cfg.Theme.Lanes,
		geom:     cfg.Geometry.Normalize(),
		branch:   cfg.Branch,
		page:     1,
		selected: -1,
	}
	return a.run()
}

func (a *Controller) run() error {
	defer a.shutdown()
	if err := ActivateTheme(tkThemeName(a.pal)); err != nil {
		slog.Error("activate theme", slog.String("theme", tkThemeName(a.pal)), slog.Any("error", err))
	}
	a.buildUI()
	a.initAutoReload(a.cfg.AutoReload)
	a.setStatus("Loading commits...")
	a.reloadAsync()
	App.WmTitle("gitlanes - " + a.src.String())
	App.SetResizable(true, true)
	App.Center().Wait()
	return nil
}

func (a *Controller) request() source.Request {
	return source.Request{Branch: a.branch, Limit: a.cfg.Limit, Page: a.page}
}

// reloadAsync loads the current branch and page off the Tk thread. A call
// made while a load is running is queued and served once it finishes.
func (a *Controller) reloadAsync() {
	if a.loading {
		a.reloadPending = true
		return
	}
	a.loading = true
	a.reloadPending = false
	req := a.request()
	slog.Debug("reload start", slog.String("branch", req.Branch), slog.Int("page", req.Page))
	go func() {
		g, err := source.Load(context.Background(), a.src, a.cfg.Cache, a.lanes, req)
		var changes git.LocalChanges
		if err == nil && a.local != nil {
			var cerr error
			if changes, cerr = a.local.LocalChanges(); cerr != nil {
				slog.Error("local changes", slog.Any("error", cerr))
			}
		}
		PostEvent(func() {
			a.loading = false
			apply, again := settleLoad(req, a.request(), a.reloadPending)
			switch {
			case !apply:
				slog.Debug("dropping stale load", slog.String("branch", req.Branch), slog.Int("page", req.Page))
			case err != nil:
				slog.Error("failed to load commits", slog.Any("error", err))
				a.setStatus(fmt.Sprintf("Failed to load commits: %v", err))
			default:
				a.applyGraph(g, changes)
			}
			if again {
				a.reloadAsync()
			}
		}, false)
	}()
}

func (a *Controller) applyGraph(g source.Graph, changes git.LocalChanges) {
	prev := ""
	if a.selected >= 0 && a.selected < len(a.graph.Commits) {
		prev = a.graph.Commits[a.selected].SHA
	}
	a.graph = g
	a.scene = render.Layout(g.Rows, a.geom, a.lanes)
	a.changes = changes
	a.selected = -1
	for i, c := range g.Commits {
		if prev != "" && c.SHA == prev {
			a.selected = i
		}
	}
	a.drawGraph()
	a.updateLocalButtons()
	a.updatePageButtons()
	a.setStatus(statusSummary(a.src.String(), a.branch, a.page, len(g.Commits), changes))
}

func (a *Controller) movePage(delta int) {
	next := pageAfter(a.page, delta, len(a.graph.Commits), a.cfg.Limit)
	if next == a.page {
		return
	}
	a.page = next
	a.selected = -1
	a.reloadAsync()
}

func (a *Controller) switchBranch(branch string) {
	if branch == a.branch {
		return
	}
	a.branch = branch
	a.page = 1
	a.selected = -1
	a.reloadAsync()
}

func (a *Controller) setStatus(msg string) {
	PostEvent(func() {
		a.ui.status.Configure(Txt(msg))
	}, false)
}
