// Package server exposes lane graphs over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-git/go-git/v5/plumbing"
	jsoniter "github.com/json-iterator/go"

	"github.com/thiagokokada/gitlanes/internal/buildinfo"
	"github.com/thiagokokada/gitlanes/internal/ghclient"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
	"github.com/thiagokokada/gitlanes/internal/source"
	"github.com/thiagokokada/gitlanes/internal/theme"
)

const (
	MaxLimit        = 5000
	shutdownTimeout = 5 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	Cache    *lanegraph.Cache
	Theme    theme.Palette
	Geometry render.Geometry
	// Limit is the page size used when the request has none.
	Limit int
}

type Server struct {
	src    source.Source
	opts   Options
	router chi.Router
}

func New(src source.Source, opts Options) *Server {
	if opts.Theme.Name == "" {
		opts.Theme = theme.LightPalette
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	opts.Geometry = opts.Geometry.Normalize()
	s := &Server{src: src, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/branches", s.handleBranches)
		r.Get("/graph", s.handleGraph)
	})
	r.Get("/graph.svg", s.handleSVG)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", addr), slog.String("source", s.src.String()))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Gitlanes-Version", buildinfo.Version())
	_, _ = w.Write([]byte("ok\n"))
}

type branchesResponse struct {
	Source   string   `json:"source"`
	Branches []string `json:"branches"`
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	names, err := s.src.BranchNames(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, branchesResponse{Source: s.src.String(), Branches: names})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Document(s.lanes()))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}
	scene := render.Layout(g.Rows, s.opts.Geometry, s.lanes())
	var buf bytes.Buffer
	err := render.WriteSVG(&buf, scene, render.SVGOptions{
		Palette: s.opts.Theme,
		Labels:  g.RowLabels(),
		Heads:   g.HeadRows(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (source.Graph, bool) {
	req, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return source.Graph{}, false
	}
	g, err := source.Load(r.Context(), s.src, s.opts.Cache, s.lanes(), req)
	if err != nil {
		writeError(w, r, err)
		return source.Graph{}, false
	}
	return g, true
}

func (s *Server) lanes() lanegraph.Palette {
	return s.opts.Theme.Lanes
}

func (s *Server) parseRequest(r *http.Request) (source.Request, error) {
	q := r.URL.Query()
	req := source.Request{Branch: q.Get("branch"), Limit: s.opts.Limit, Page: 1}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxLimit {
			return req, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
		}
		req.Limit = n
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return req, fmt.Errorf("page must be a positive integer")
		}
		req.Page = n
	}
	return req, nil
}

// statusFor maps source errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ghclient.ErrNotFound), errors.Is(err, plumbing.ErrReferenceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ghclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ghclient.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var rl *ghclient.RateLimitError
	if errors.As(err, &rl) && !rl.Reset.IsZero() {
		secs := max(int(time.Until(rl.Reset).Seconds()), 0)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	slog.Warn("request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
