// Package tavily provides a client for the Tavily Search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stylecart/shop-cli/internal/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// Client performs Tavily search operations.
type Client interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

// Result is a single Tavily search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeImages bool   `json:"include_images"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the default retry tuning.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a Tavily API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, num int) ([]Result, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    num,
		IncludeImages: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "tavily: marshal request")
	}
	return resilience.DoVal(ctx, c.retry, "tavily", func(ctx context.Context) ([]Result, error) {
		return c.search(ctx, body)
	})
}

func (c *httpClient) search(ctx context.Context, body []byte) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "tavily: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "tavily: unmarshal response")
	}

	return result.Results, nil
}
