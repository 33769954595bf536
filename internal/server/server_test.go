package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thiagokokada/gitlanes/internal/ghclient"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
)

type fakeSource struct {
	commits  []lanegraph.Commit
	branches []string
	err      error
	calls    []string
}

func (f *fakeSource) String() string { return "fake/repo" }

func (f *fakeSource) Commits(_ context.Context, branch string, limit, page int) ([]lanegraph.Commit, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d:%d", branch, limit, page))
	return f.commits, f.err
}

func (f *fakeSource) BranchNames(context.Context) ([]string, error) { return f.branches, f.err }

func (f *fakeSource) BranchLabels(context.Context) (map[string][]string, error) {
	return map[string][]string{"M1": {"HEAD -> main"}}, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		branches: []string{"main", "feature"},
		commits: []lanegraph.Commit{
			{SHA: "M1", Parents: []string{"C1", "B1"}, Info: lanegraph.Info{Message: "Merge <feature>"}},
			{SHA: "C1", Parents: []string{"C0"}},
			{SHA: "B1", Parents: []string{"C0"}},
			{SHA: "C0"},
		},
	}
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	resp := get(t, New(newFake(), Options{}).Handler(), "/healthz")
	if resp.StatusCode != http.StatusOK || readBody(t, resp) != "ok\n" {
		t.Fatalf("unexpected health response %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Gitlanes-Version") == "" {
		t.Fatal("missing version header")
	}
}

func TestBranches(t *testing.T) {
	t.Parallel()

	resp := get(t, New(newFake(), Options{}).Handler(), "/api/branches")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"branches":["main","feature"]`) || !strings.Contains(body, `"source":"fake/repo"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestGraph(t *testing.T) {
	t.Parallel()

	src := newFake()
	cache, err := lanegraph.NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	h := New(src, Options{Cache: cache, Limit: 50}).Handler()

	resp := get(t, h, "/api/graph?branch=main&limit=10&page=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	doc, err := render.ReadJSON(resp.Body)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if doc.Lanes != 2 || len(doc.Rows) != 4 || doc.Rows[2].Layout.Lane != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if src.calls[0] != "main:10:2" {
		t.Fatalf("unexpected source call %q", src.calls[0])
	}

	get(t, h, "/api/graph")
	if src.calls[1] != ":50:1" {
		t.Fatalf("defaults not applied: %q", src.calls[1])
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached layout, got %d", cache.Len())
	}
}

func TestGraph_BadParams(t *testing.T) {
	t.Parallel()

	h := New(newFake(), Options{}).Handler()
	for _, target := range []string{"/api/graph?limit=0", "/api/graph?limit=x", "/api/graph?page=-1", "/graph.svg?limit=999999"} {
		if resp := get(t, h, target); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", target, resp.StatusCode)
		}
	}
}

func TestSVG(t *testing.T) {
	t.Parallel()

	resp := get(t, New(newFake(), Options{}).Handler(), "/graph.svg")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(body, "<svg") || strings.Count(body, "<circle") != 4 {
		t.Fatalf("unexpected svg: %s", body)
	}
	if !strings.Contains(body, "Merge &lt;feature&gt;") {
		t.Fatalf("labels not escaped: %s", body)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("list commits: %w", ghclient.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("list commits: %w", ghclient.ErrUnauthorized), http.StatusUnauthorized},
		{&ghclient.RateLimitError{Reset: time.Now().Add(time.Minute)}, http.StatusTooManyRequests},
		{errors.New("connection reset"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		src := newFake()
		src.err = tt.err
		h := New(src, Options{}).Handler()
		for _, target := range []string{"/api/graph", "/api/branches"} {
			resp := get(t, h, target)
			if resp.StatusCode != tt.status {
				t.Fatalf("%s with %v: status %d, want %d", target, tt.err, resp.StatusCode, tt.status)
			}
			if !strings.Contains(readBody(t, resp), `"error":`) {
				t.Fatalf("%s: missing error body", target)
			}
		}
	}
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	src := newFake()
	src.err = &ghclient.RateLimitError{Reset: time.Now().Add(2 * time.Minute)}
	resp := get(t, New(src, Options{}).Handler(), "/api/graph")
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(newFake(), Options{}).ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
