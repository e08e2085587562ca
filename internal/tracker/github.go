package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "statuspage-sync"

	// listPageSize matches the tracker's maximum page size. Listing is
	// single-page; repositories with more than 100 incident issues per
	// state are outside this tool's contract.
	listPageSize = 100
)

// APIError is a non-2xx tracker response, surfaced with the status code
// and raw body so per-incident failures can be logged and skipped.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API returned %d: %s", e.StatusCode, e.Body)
}

// GitHubClient implements Client against the GitHub Issues REST API.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff; 4xx responses are returned immediately.
type GitHubClient struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	httpClient *http.Client
	maxRetries uint64
	logger     zerolog.Logger
}

// GitHubOption configures a GitHubClient.
type GitHubOption func(*GitHubClient)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(base string) GitHubOption {
	return func(c *GitHubClient) { c.baseURL = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) GitHubOption {
	return func(c *GitHubClient) { c.httpClient = hc }
}

// WithMaxRetries overrides the retry budget for transient failures.
func WithMaxRetries(n uint64) GitHubOption {
	return func(c *GitHubClient) { c.maxRetries = n }
}

// WithLogger attaches a logger for request-level debug output.
func WithLogger(logger zerolog.Logger) GitHubOption {
	return func(c *GitHubClient) { c.logger = logger }
}

// NewGitHubClient creates a tracker client for owner/repo authenticated
// with token.
func NewGitHubClient(owner, repo, token string, opts ...GitHubOption) *GitHubClient {
	c := &GitHubClient{
		baseURL:    defaultBaseURL,
		owner:      owner,
		repo:       repo,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// githubIssue is the wire shape of an issue.
type githubIssue struct {
	Number    int           `json:"number"`
	State     string        `json:"state"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	HTMLURL   string        `json:"html_url"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ClosedAt  *time.Time    `json:"closed_at"`
	Labels    []githubLabel `json:"labels"`
}

type githubLabel struct {
	Name string `json:"name"`
}

func (gi githubIssue) toIssue() Issue {
	labels := make([]string, 0, len(gi.Labels))
	for _, l := range gi.Labels {
		labels = append(labels, l.Name)
	}
	return Issue{
		Number:    gi.Number,
		State:     State(gi.State),
		Title:     gi.Title,
		Body:      gi.Body,
		Labels:    labels,
		HTMLURL:   gi.HTMLURL,
		CreatedAt: gi.CreatedAt,
		UpdatedAt: gi.UpdatedAt,
		ClosedAt:  gi.ClosedAt,
	}
}

// ListIssues fetches issues carrying label in the given state.
func (c *GitHubClient) ListIssues(ctx context.Context, label string, state State) ([]Issue, error) {
	query := url.Values{}
	query.Set("labels", label)
	query.Set("state", string(state))
	query.Set("per_page", fmt.Sprintf("%d", listPageSize))
	path := fmt.Sprintf("/repos/%s/%s/issues?%s", c.owner, c.repo, query.Encode())

	var wire []githubIssue
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to list %s issues: %w", state, err)
	}

	issues := make([]Issue, 0, len(wire))
	for _, gi := range wire {
		issues = append(issues, gi.toIssue())
	}
	return issues, nil
}

// CreateIssue opens a new issue and returns the tracker's view of it.
func (c *GitHubClient) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	payload := map[string]any{
		"title":  title,
		"body":   body,
		"labels": labels,
	}

	var wire githubIssue
	path := fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo)
	if err := c.do(ctx, http.MethodPost, path, payload, &wire); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	issue := wire.toIssue()
	return &issue, nil
}

// UpdateIssue applies a partial update to an issue.
func (c *GitHubClient) UpdateIssue(ctx context.Context, number int, patch IssuePatch) error {
	payload := map[string]any{}
	if patch.Body != nil {
		payload["body"] = *patch.Body
	}
	if patch.Labels != nil {
		payload["labels"] = *patch.Labels
	}
	if patch.State != nil {
		payload["state"] = string(*patch.State)
	}

	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("failed to update issue #%d: %w", number, err)
	}
	return nil
}

// AddComment posts a comment on an issue.
func (c *GitHubClient) AddComment(ctx context.Context, number int, body string) error {
	payload := map[string]any{"body": body}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, number)
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}

// do executes one API call with retries on transient failures and
// decodes the response into out when out is non-nil.
func (c *GitHubClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Authorization", "token "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug().Str("method", method).Str("path", path).Msg("tracker request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
			if resp.StatusCode >= 500 {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(operation, bo)
}
