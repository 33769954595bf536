// Package ghclient fetches commit history and branches from the GitHub REST
// API and converts them into lanegraph input.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

const (
	DefaultPerPage = 50
	// GitHub refuses larger pages on the list endpoints.
	MaxPerPage = 100
)

var (
	ErrNotFound     = errors.New("github: not found")
	ErrUnauthorized = errors.New("github: unauthorized")
	ErrRateLimited  = errors.New("github: rate limited")
)

// RateLimitError wraps ErrRateLimited with the time the limit resets.
type RateLimitError struct {
	Reset time.Time
	err   error
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return fmt.Sprintf("%v: %v", ErrRateLimited, e.err)
	}
	return fmt.Sprintf("%v until %s: %v", ErrRateLimited, e.Reset.Format(time.RFC3339), e.err)
}

func (e *RateLimitError) Unwrap() []error { return []error{ErrRateLimited, e.err} }

type Options struct {
	Token string
	// BaseURL points at a GitHub Enterprise API root or a test server.
	BaseURL    string
	PerPage    int
	HTTPClient *http.Client
}

type Client struct {
	gh       *github.Client
	perPage  int
	hasToken bool
}

func New(ctx context.Context, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if opts.Token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	gh := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Client{gh: gh, perPage: min(perPage, MaxPerPage), hasToken: opts.Token != ""}, nil
}

type ListOptions struct {
	// Branch is a branch name or SHA; empty means the default branch.
	Branch  string
	PerPage int
	// Page is 1-based; zero is treated as the first page.
	Page int
}

// ListCommits returns one API page of commits, newest first.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, opts ListOptions) ([]lanegraph.Commit, error) {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = c.perPage
	}
	commits, _, err := c.listCommits(ctx, owner, repo, &github.CommitsListOptions{
		SHA: opts.Branch,
		ListOptions: github.ListOptions{
			Page:    max(opts.Page, 1),
			PerPage: min(perPage, MaxPerPage),
		},
	})
	return commits, err
}

// CommitRange returns up to limit commits starting offset commits below the
// branch tip. GitHub caps pages at MaxPerPage, so the range is assembled from
// as many API pages as it spans.
func (c *Client) CommitRange(ctx context.Context, owner, repo, branch string, offset, limit int) ([]lanegraph.Commit, error) {
	if limit <= 0 {
		return nil, nil
	}
	offset = max(offset, 0)
	listOpts := &github.CommitsListOptions{
		SHA: branch,
		ListOptions: github.ListOptions{
			Page:    offset/MaxPerPage + 1,
			PerPage: MaxPerPage,
		},
	}
	skip := offset % MaxPerPage
	commits := make([]lanegraph.Commit, 0, min(limit, MaxPerPage))
	for len(commits) < limit {
		page, next, err := c.listCommits(ctx, owner, repo, listOpts)
		if err != nil {
			return nil, err
		}
		if skip >= len(page) {
			break
		}
		page = page[skip:]
		skip = 0
		commits = append(commits, page[:min(len(page), limit-len(commits))]...)
		if next == 0 {
			break
		}
		listOpts.Page = next
	}
	return commits, nil
}

// listCommits fetches one page and reports the next page number, zero on the
// last page.
func (c *Client) listCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]lanegraph.Commit, int, error) {
	slog.Debug("github list commits",
		slog.String("repo", owner+"/"+repo),
		slog.String("branch", opts.SHA),
		slog.Int("page", opts.Page),
		slog.Int("per_page", opts.PerPage),
	)
	raw, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, 0, c.wrapError(fmt.Sprintf("list commits %s/%s", owner, repo), err)
	}
	commits := make([]lanegraph.Commit, 0, len(raw))
	for _, rc := range raw {
		commits = append(commits, convertCommit(rc))
	}
	next := 0
	if resp != nil {
		next = resp.NextPage
	}
	return commits, next, nil
}

type Branch struct {
	Name      string
	SHA       string
	Protected bool
}

// ListBranches follows pagination until every branch has been read.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: MaxPerPage}}
	var branches []Branch
	for {
		page, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, c.wrapError(fmt.Sprintf("list branches %s/%s", owner, repo), err)
		}
		for _, b := range page {
			branches = append(branches, Branch{
				Name:      b.GetName(),
				SHA:       b.GetCommit().GetSHA(),
				Protected: b.GetProtected(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

func convertCommit(rc *github.RepositoryCommit) lanegraph.Commit {
	parents := make([]string, 0, len(rc.Parents))
	for _, p := range rc.Parents {
		if sha := p.GetSHA(); sha != "" {
			parents = append(parents, sha)
		}
	}
	inner := rc.GetCommit()
	author := inner.GetAuthor()
	return lanegraph.Commit{
		SHA:     rc.GetSHA(),
		Parents: parents,
		Info: lanegraph.Info{
			Author:   author.GetName(),
			Email:    author.GetEmail(),
			When:     author.GetDate().Time,
			Message:  inner.GetMessage(),
			URL:      rc.GetHTMLURL(),
			Verified: inner.GetVerification().GetVerified(),
		},
	}
}

func (c *Client) wrapError(op string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", op, &RateLimitError{Reset: rateErr.Rate.Reset.Time, err: err})
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var reset time.Time
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return fmt.Errorf("%s: %w", op, &RateLimitError{Reset: reset, err: err})
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
		case http.StatusUnauthorized, http.StatusForbidden:
			if !c.hasToken {
				return fmt.Errorf("%s: %w (no token configured, set GITHUB_TOKEN)", op, errors.Join(ErrUnauthorized, err))
			}
			return fmt.Errorf("%s: %w", op, errors.Join(ErrUnauthorized, err))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
