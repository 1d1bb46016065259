// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/version"
)

// EnvToken names the environment variable holding an API token.
const EnvToken = "GITHUB_TOKEN"

// DefaultPerPage is the page size requested from list endpoints.
const DefaultPerPage = 100

// Repository is a repository owned by a user.
type Repository struct {
	Name     string `jsonapi:"primary,repositories"`
	CloneURL string `jsonapi:"attr,clone_url"`
	SSHURL   string `jsonapi:"attr,ssh_url"`
}

// Branch is a branch and the SHA of its head commit.
type Branch struct {
	Name       string `jsonapi:"primary,branches"`
	CommitSHA  string `jsonapi:"attr,commit_sha"`
	Repository string `jsonapi:"attr,repository"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
}

// Client wraps the go-github client.
type Client struct {
	gh      *gh.Client
	perPage int
}

// Option customizes a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root, e.g. a GitHub
// Enterprise server or a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid base url %q: %w", base, err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithPerPage sets the page size for list calls.
func WithPerPage(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("per page must be positive, got %d", n)
		}
		c.perPage = n
		return nil
	}
}

// NewClient returns a Client. An empty token makes anonymous requests.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	var hc *http.Client
	if strings.TrimSpace(token) != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		log.Debugf("github token not provided; using anonymous access")
	}

	c := &Client{gh: gh.NewClient(hc), perPage: DefaultPerPage}
	c.gh.UserAgent = version.UserAgent()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Repositories lists every repository of user.
func (c *Client) Repositories(ctx context.Context, user string) ([]Repository, error) {
	opts := &gh.RepositoryListByUserOptions{ListOptions: gh.ListOptions{PerPage: c.perPage}}

	var repos []Repository
	for {
		page, resp, err := c.gh.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, apiError(err)
		}
		for _, r := range page {
			repos = append(repos, Repository{
				Name:     r.GetName(),
				CloneURL: r.GetCloneURL(),
				SSHURL:   r.GetSSHURL(),
			})
		}
		log.Debugf("repositories page: user=%s, page=%d, count=%d", user, opts.Page, len(page))
		if resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

// Branches lists every branch of owner/repo.
func (c *Client) Branches(ctx context.Context, owner, repo string) ([]Branch, error) {
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: c.perPage}}

	var branches []Branch
	for {
		page, resp, err := c.gh.Repositories.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, apiError(err)
		}
		for _, b := range page {
			branches = append(branches, Branch{
				Name:       b.GetName(),
				CommitSHA:  b.GetCommit().GetSHA(),
				Repository: repo,
			})
		}
		log.Debugf("branches page: repo=%s/%s, page=%d, count=%d", owner, repo, opts.Page, len(page))
		if resp.NextPage == 0 {
			return branches, nil
		}
		opts.Page = resp.NextPage
	}
}

// apiError converts go-github response errors into *APIError. Transport
// errors pass through.
func apiError(err error) error {
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return newAPIError(er.Response, er.Message, err)
	}
	var rl *gh.RateLimitError
	if errors.As(err, &rl) && rl.Response != nil {
		return newAPIError(rl.Response, rl.Message, err)
	}
	return err
}

func newAPIError(resp *http.Response, message string, err error) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Message: message}
	if resp.Request != nil && resp.Request.URL != nil {
		e.URL = resp.Request.URL.String()
	}
	if e.Message == "" {
		e.Message = err.Error()
	}
	return e
}
