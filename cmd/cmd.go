// Package cmd implements the gitlanes command line.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/thiagokokada/gitlanes/internal/buildinfo"
	"github.com/thiagokokada/gitlanes/internal/config"
	"github.com/thiagokokada/gitlanes/internal/ghclient"
	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/gui"
	"github.com/thiagokokada/gitlanes/internal/highlight"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
	"github.com/thiagokokada/gitlanes/internal/server"
	"github.com/thiagokokada/gitlanes/internal/source"
	"github.com/thiagokokada/gitlanes/internal/theme"
	"github.com/thiagokokada/gitlanes/internal/watch"
)

var errLocalOnly = errors.New("needs a local repository")

type command struct {
	usage string
	run   func(e *env, args []string) error
}

var commands = map[string]command{
	"view":     {usage: "[repo]", run: runView},
	"log":      {usage: "[-author] [-cols n] [repo]", run: runLog},
	"json":     {usage: "[repo]", run: runJSON},
	"svg":      {usage: "[-o file] [-watch] [repo]", run: runSVG},
	"show":     {usage: "[-worktree [-staged]] [rev] [repo]", run: runShow},
	"branches": {usage: "[repo]", run: runBranches},
	"serve":    {usage: "[-addr host:port] [repo]", run: runServe},
}

func Run() error {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

type globalFlags struct {
	config   string
	github   string
	mode     string
	branch   string
	limit    int
	page     int
	noWatch  bool
	noSyntax bool
	verbose  bool
	version  bool
}

type env struct {
	ctx    context.Context
	flags  globalFlags
	cfg    config.Config
	pal    theme.Palette
	cache  *lanegraph.Cache
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("gitlanes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var g globalFlags
	fs.StringVar(&g.config, "config", config.Path(), "path to the YAML config file")
	fs.StringVar(&g.github, "github", "", "read history from a GitHub repository (owner/name or URL)")
	fs.StringVar(&g.mode, "mode", "", "color mode: auto, light, or dark")
	fs.StringVar(&g.branch, "branch", "", "branch or revision to walk (default: HEAD)")
	fs.IntVar(&g.limit, "limit", 0, "number of commits per page")
	fs.IntVar(&g.page, "page", 1, "page to load, starting at 1")
	fs.BoolVar(&g.noWatch, "nowatch", false, "disable automatic reload when repository changes")
	fs.BoolVar(&g.noSyntax, "nosyntax", false, "disable syntax highlighting in diffs")
	fs.BoolVar(&g.verbose, "verbose", false, "enable verbose logging")
	fs.BoolVar(&g.version, "version", false, "print version information and exit")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if g.version {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}
	if g.page < 1 {
		return fmt.Errorf("invalid -page %d", g.page)
	}
	setupLogging(stderr, g.verbose)

	cfg, err := config.Load(g.config)
	if err != nil {
		return err
	}
	if g.mode == "" {
		g.mode = cfg.Theme
	}
	pal := theme.Resolve(theme.PreferenceFromString(g.mode))
	pal = pal.WithLanes(cfg.LanePalette(pal.IsDark()))
	cache, err := lanegraph.NewCache(lanegraph.DefaultCacheSize)
	if err != nil {
		return err
	}

	name, rest := splitCommand(fs.Args())
	e := &env{ctx: ctx, flags: g, cfg: cfg, pal: pal, cache: cache, stdout: stdout, stderr: stderr}
	slog.Debug("running", slog.String("command", name), slog.String("version", buildinfo.Version()))
	if err := commands[name].run(e, rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: gitlanes [flags] [command] [args]")
	fmt.Fprintln(out, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-9s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(out, "\nflags:")
	fs.PrintDefaults()
}

// splitCommand treats a leading argument that is not a command name as the
// repository path for the default view command.
func splitCommand(args []string) (string, []string) {
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			return args[0], args[1:]
		}
	}
	return "view", args
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (e *env) limit() int {
	if e.flags.limit > 0 {
		return e.flags.limit
	}
	if e.cfg.Limit > 0 {
		return e.cfg.Limit
	}
	return config.DefaultLimit
}

func (e *env) syntax() bool {
	return !e.flags.noSyntax && !e.cfg.NoSyntax
}

func (e *env) request() source.Request {
	return source.Request{Branch: e.flags.branch, Limit: e.limit(), Page: e.flags.page}
}

// openSource returns the GitHub repository named by -github, or the local
// repository at path. The service is nil for remote sources.
func (e *env) openSource(path string) (source.Source, *git.Service, error) {
	if e.flags.github != "" {
		if path != "" {
			return nil, nil, fmt.Errorf("-github does not take a repository path (got %q)", path)
		}
		owner, name, err := ghclient.ParseRepo(e.flags.github)
		if err != nil {
			return nil, nil, err
		}
		client, err := ghclient.New(e.ctx, ghclient.Options{
			Token:   e.cfg.GitHub.Token,
			BaseURL: e.cfg.GitHub.BaseURL,
			PerPage: e.cfg.GitHub.PerPage,
		})
		if err != nil {
			return nil, nil, err
		}
		return client.Repo(owner, name), nil, nil
	}
	if path == "" {
		path = "."
	}
	svc, err := git.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return source.NewLocal(svc), svc, nil
}

func (e *env) load(src source.Source) (source.Graph, error) {
	return source.Load(e.ctx, src, e.cache, e.pal.Lanes, e.request())
}

func repoArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("unexpected arguments %q", args[1:])
	}
}

func parseFlags(fs *flag.FlagSet, e *env, args []string) error {
	fs.SetOutput(e.stderr)
	return fs.Parse(args)
}

func openFromArgs(e *env, args []string) (source.Source, *git.Service, error) {
	path, err := repoArg(args)
	if err != nil {
		return nil, nil, err
	}
	return e.openSource(path)
}

func runView(e *env, args []string) error {
	src, svc, err := openFromArgs(e, args)
	if err != nil {
		return err
	}
	return gui.Run(gui.RunConfig{
		Source:          src,
		Local:           svc,
		Branch:          e.flags.branch,
		Limit:           e.limit(),
		Theme:           e.pal,
		Geometry:        e.cfg.RenderGeometry(),
		Cache:           e.cache,
		AutoReload:      svc != nil && e.cfg.AutoReload && !e.flags.noWatch,
		SyntaxHighlight: e.syntax(),
	})
}

func runLog(e *env, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	author := fs.Bool("author", false, "append the author name")
	cols := fs.Int("cols", 0, "cap the graph column width (0 = unlimited)")
	if err := parseFlags(fs, e, args); err != nil {
		return err
	}
	src, _, err := openFromArgs(e, fs.Args())
	if err != nil {
		return err
	}
	g, err := e.load(src)
	if err != nil {
		return err
	}
	return render.WriteText(e.stdout, g.Rows, g.Commits, render.TextOptions{
		MaxCols: *cols,
		Labels:  g.Labels,
		Author:  *author,
	})
}

func runJSON(e *env, args []string) error {
	src, _, err := openFromArgs(e, args)
	if err != nil {
		return err
	}
	g, err := e.load(src)
	if err != nil {
		return err
	}
	return render.WriteJSON(e.stdout, g.Document(e.pal.Lanes))
}

func runSVG(e *env, args []string) error {
	fs := flag.NewFlagSet("svg", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: stdout)")
	follow := fs.Bool("watch", false, "rewrite the output whenever the repository changes")
	if err := parseFlags(fs, e, args); err != nil {
		return err
	}
	src, svc, err := openFromArgs(e, fs.Args())
	if err != nil {
		return err
	}
	write := func() error {
		g, err := e.load(src)
		if err != nil {
			return err
		}
		scene := render.Layout(g.Rows, e.cfg.RenderGeometry(), e.pal.Lanes)
		return writeOutput(*out, e.stdout, func(w io.Writer) error {
			return render.WriteSVG(w, scene, render.SVGOptions{
				Palette: e.pal,
				Labels:  g.RowLabels(),
				Heads:   g.HeadRows(),
			})
		})
	}
	if err := write(); err != nil {
		return err
	}
	if !*follow {
		return nil
	}
	if svc == nil {
		return fmt.Errorf("-watch %w", errLocalOnly)
	}
	if *out == "" || *out == "-" {
		return errors.New("-watch needs -o")
	}
	return watchAndRewrite(e.ctx, svc.RepoPath(), *out, write)
}

func watchAndRewrite(ctx context.Context, repoPath, out string, write func() error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	w, err := watch.New(repoPath, watch.DefaultDelay, func() {
		mu.Lock()
		defer mu.Unlock()
		if err := write(); err != nil {
			slog.Error("rewrite svg", slog.String("path", out), slog.Any("error", err))
			return
		}
		slog.Info("svg updated", slog.String("path", out))
	})
	if err != nil {
		return err
	}
	defer w.Close()
	slog.Info("watching repository", slog.String("repo", repoPath), slog.String("path", out))
	<-ctx.Done()
	return nil
}

// writeOutput writes to stdout for an empty path or "-". Files are replaced
// atomically so viewers never see a partial document.
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func runShow(e *env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	worktree := fs.Bool("worktree", false, "show uncommitted changes instead of a commit")
	staged := fs.Bool("staged", false, "with -worktree, show staged changes")
	if err := parseFlags(fs, e, args); err != nil {
		return err
	}
	rev, path, err := showArgs(fs.Args(), *worktree)
	if err != nil {
		return err
	}
	_, svc, err := e.openSource(path)
	if err != nil {
		return err
	}
	if svc == nil {
		return errLocalOnly
	}
	var d git.Detail
	if *worktree {
		d, err = svc.WorktreeDiff(*staged)
	} else {
		d, err = svc.CommitDetail(rev)
	}
	if err != nil {
		return err
	}
	text := d.String()
	if *worktree && !d.HasChanges() {
		text = "No local changes.\n"
	}
	return highlight.WriteDiff(e.stdout, text, e.pal, !e.syntax() || !isTerminal(e.stdout))
}

// showArgs splits "[rev] [repo]". With -worktree the only argument is the
// repository.
func showArgs(args []string, worktree bool) (rev, path string, err error) {
	if worktree {
		path, err = repoArg(args)
		return "", path, err
	}
	switch len(args) {
	case 0:
		return "HEAD", "", nil
	case 1:
		return args[0], "", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("unexpected arguments %q", args[2:])
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runBranches(e *env, args []string) error {
	src, svc, err := openFromArgs(e, args)
	if err != nil {
		return err
	}
	var names []string
	head := ""
	if svc != nil {
		names, head, err = svc.LocalBranchNames()
	} else {
		names, err = src.BranchNames(e.ctx)
	}
	if err != nil {
		return err
	}
	for _, name := range names {
		marker := "  "
		if name == head {
			marker = "* "
		}
		fmt.Fprintf(e.stdout, "%s%s\n", marker, name)
	}
	return nil
}

func runServe(e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (default from config)")
	if err := parseFlags(fs, e, args); err != nil {
		return err
	}
	src, _, err := openFromArgs(e, fs.Args())
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = e.cfg.Server.Addr
	}
	ctx, stop := signal.NotifyContext(e.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv := server.New(src, server.Options{
		Cache:    e.cache,
		Theme:    e.pal,
		Geometry: e.cfg.RenderGeometry(),
		Limit:    e.limit(),
	})
	return srv.ListenAndServe(ctx, *addr)
}
