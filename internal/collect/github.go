// Package collect gathers commit and issue history for a GitHub repository.
// The records feed the rule table maintenance workflow: scanning NumPy's own
// history for deprecation and removal announcements.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
	pageThrottle   = 500 * time.Millisecond
	maxMessageLen  = 150
)

// Commit is the subset of a GitHub commit kept for analysis.
type Commit struct {
	SHA     string `json:"sha"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
	HTMLURL string `json:"html_url"`
}

// Issue is the subset of a GitHub issue (or pull request) kept for analysis.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	User      string   `json:"user"`
	CreatedAt string   `json:"created_at"`
	ClosedAt  string   `json:"closed_at,omitempty"`
	Labels    []string `json:"labels"`
	HTMLURL   string   `json:"html_url"`
	IsPR      bool     `json:"is_pr"`
}

// Client fetches repository history from the GitHub REST API.
type Client struct {
	baseURL string
	owner   string
	repo    string
	token   string
	http    *http.Client
	logger  *slog.Logger

	// throttle between pages, overridable in tests
	throttle time.Duration
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(base, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithThrottle(d time.Duration) Option {
	return func(c *Client) { c.throttle = d }
}

func NewClient(owner, repo, token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		baseURL:  defaultBaseURL,
		owner:    owner,
		repo:     repo,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		throttle: pageThrottle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchAllPages walks a paginated list endpoint until a short page.
func (c *Client) fetchAllPages(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var results []json.RawMessage
	page := 1
	for {
		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("per_page", fmt.Sprintf("%d", perPage))

		endpoint := fmt.Sprintf("%s/repos/%s/%s%s?%s", c.baseURL, c.owner, c.repo, path, q.Encode())
		c.logger.Info("fetching page", slog.String("url", endpoint), slog.Int("page", page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "token "+c.token)
		}
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", endpoint, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d: %s", endpoint, resp.StatusCode, truncate(string(body), 200))
		}

		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", endpoint, err)
		}
		if len(items) == 0 {
			break
		}
		results = append(results, items...)
		if len(items) < perPage {
			break
		}
		page++

		// avoid rate limiting
		select {
		case <-time.After(c.throttle):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

// CollectCommits fetches all commits since the given time and keeps the
// fields the analysis needs.
func (c *Client) CollectCommits(ctx context.Context, since time.Time) ([]Commit, error) {
	params := url.Values{}
	params.Set("since", since.UTC().Format(time.RFC3339))

	raw, err := c.fetchAllPages(ctx, "/commits", params)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, item := range raw {
		var full struct {
			SHA    string `json:"sha"`
			Author *struct {
				Login string `json:"login"`
			} `json:"author"`
			Commit struct {
				Author struct {
					Name string `json:"name"`
					Date string `json:"date"`
				} `json:"author"`
				Message string `json:"message"`
			} `json:"commit"`
			HTMLURL string `json:"html_url"`
		}
		if err := json.Unmarshal(item, &full); err != nil {
			return nil, fmt.Errorf("decode commit: %w", err)
		}

		author := full.Commit.Author.Name
		if full.Author != nil && full.Author.Login != "" {
			author = full.Author.Login
		}
		if author == "" {
			author = "Unknown"
		}

		commits = append(commits, Commit{
			SHA:     shortSHA(full.SHA),
			Author:  author,
			Date:    full.Commit.Author.Date,
			Message: firstLine(full.Commit.Message),
			HTMLURL: full.HTMLURL,
		})
	}
	c.logger.Info("commits collected", slog.Int("count", len(commits)))
	return commits, nil
}

// CollectIssues fetches all issues and pull requests since the given time.
func (c *Client) CollectIssues(ctx context.Context, since time.Time) ([]Issue, error) {
	params := url.Values{}
	params.Set("state", "all")
	params.Set("since", since.UTC().Format(time.RFC3339))

	raw, err := c.fetchAllPages(ctx, "/issues", params)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, item := range raw {
		var full struct {
			Number int    `json:"number"`
			Title  string `json:"title"`
			State  string `json:"state"`
			User   struct {
				Login string `json:"login"`
			} `json:"user"`
			CreatedAt string `json:"created_at"`
			ClosedAt  string `json:"closed_at"`
			Labels    []struct {
				Name string `json:"name"`
			} `json:"labels"`
			HTMLURL     string          `json:"html_url"`
			PullRequest json.RawMessage `json:"pull_request"`
		}
		if err := json.Unmarshal(item, &full); err != nil {
			return nil, fmt.Errorf("decode issue: %w", err)
		}

		labels := make([]string, 0, len(full.Labels))
		for _, l := range full.Labels {
			labels = append(labels, l.Name)
		}

		issues = append(issues, Issue{
			Number:    full.Number,
			Title:     full.Title,
			State:     full.State,
			User:      full.User.Login,
			CreatedAt: full.CreatedAt,
			ClosedAt:  full.ClosedAt,
			Labels:    labels,
			HTMLURL:   full.HTMLURL,
			IsPR:      len(full.PullRequest) > 0,
		})
	}
	c.logger.Info("issues collected", slog.Int("count", len(issues)))
	return issues, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return truncate(message, maxMessageLen)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
