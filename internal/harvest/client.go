// Package harvest turns quest reports filed as GitHub issues into database
// record lines ready for review.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const githubBaseURL = "https://api.github.com"

var errRetryable = errors.New("retryable response")

// Issue is the part of a GitHub issue the extractor needs.
type Issue struct {
	Number int
	Title  string
	URL    string
	Body   string
}

// Client pages through the issues of one repository.
type Client struct {
	BaseURL    string
	repo       string
	token      string
	httpClient *http.Client
	maxRetries int
	// backoff is multiplied by the attempt number before each retry.
	backoff time.Duration
	// pageDelay spaces out page requests.
	pageDelay time.Duration
}

// NewClient creates a client for repo ("owner/name"). The token is optional.
func NewClient(repo, token string) *Client {
	return &Client{
		BaseURL: githubBaseURL,
		repo:    repo,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxRetries: 3,
		backoff:    2 * time.Second,
		pageDelay:  500 * time.Millisecond,
	}
}

// Issues fetches every issue, open and closed, until an empty page. Pull
// requests are skipped.
func (c *Client) Issues(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	for page := 1; ; page++ {
		if page > 1 && c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}

		body, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}

		items := gjson.ParseBytes(body).Array()
		if len(items) == 0 {
			break
		}

		skipped := 0
		for _, item := range items {
			if item.Get("pull_request").Exists() {
				skipped++
				continue
			}
			issues = append(issues, Issue{
				Number: int(item.Get("number").Int()),
				Title:  item.Get("title").String(),
				URL:    item.Get("html_url").String(),
				Body:   item.Get("body").String(),
			})
		}

		log.Debug().Int("page", page).Int("items", len(items)).Int("pull_requests", skipped).Msg("Fetched issue page")
	}

	log.Info().Str("repo", c.repo).Int("issues", len(issues)).Msg("Fetched issues")
	return issues, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			log.Warn().Int("attempt", attempt+1).Int("page", page).Dur("backoff", backoff).Msg("Retrying issue page")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, page)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, errRetryable) {
			break
		}
	}

	return nil, fmt.Errorf("fetch issues page %d: %w", page, lastErr)
}

func (c *Client) doRequest(ctx context.Context, page int) ([]byte, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("per_page", "100")
	q.Set("page", strconv.Itoa(page))
	u := fmt.Sprintf("%s/repos/%s/issues?%s", c.BaseURL, c.repo, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "questdb")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w (status %d): %s", errRetryable, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON in issues page %d", page)
	}

	return body, nil
}
