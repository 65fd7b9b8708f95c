// Package serper provides a client for the Serper Google Shopping and
// Search APIs.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stylecart/shop-cli/internal/resilience"
)

// Serper has historically answered on both hosts; try them in order.
var defaultBaseURLs = []string{
	"https://google.serper.dev",
	"https://serper.dev",
}

// Client performs Serper API operations.
type Client interface {
	// Shopping runs a Google Shopping query and returns product items.
	Shopping(ctx context.Context, query string, num int) ([]ShoppingItem, error)
	// Search runs a web search and returns organic results.
	Search(ctx context.Context, query string, num int) ([]OrganicResult, error)
}

// FlexString unmarshals a JSON string or number into a string, for fields
// like "price" that Serper returns in either form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// ShoppingItem is one product record from the shopping endpoint.
type ShoppingItem struct {
	Title          string     `json:"title"`
	Source         string     `json:"source"`
	Price          FlexString `json:"price"`
	ExtractedPrice float64    `json:"extractedPrice"`
	Delivery       string     `json:"delivery"`
	ImageURL       string     `json:"imageUrl"`
	Thumbnail      string     `json:"thumbnail"`
	Thumbnails     []string   `json:"thumbnails"`
	Link           string     `json:"link"`
	Snippet        string     `json:"snippet"`
	Rating         float64    `json:"rating"`
	RatingCount    int        `json:"ratingCount"`
}

// OrganicResult is one organic web result from the search endpoint.
type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type shoppingResponse struct {
	Shopping []ShoppingItem `json:"shopping"`
	Organic  []ShoppingItem `json:"organic"`
	Products []ShoppingItem `json:"products"`
}

type searchResponse struct {
	Organic []OrganicResult `json:"organic"`
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURLs overrides the default endpoint failover list.
func WithBaseURLs(urls ...string) Option {
	return func(c *httpClient) {
		c.baseURLs = urls
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
	apiKey   string
	baseURLs []string
	http     *http.Client
	retry    resilience.Policy
}

// NewClient creates a Serper API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURLs: defaultBaseURLs,
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

func (c *httpClient) Shopping(ctx context.Context, query string, num int) ([]ShoppingItem, error) {
	var resp shoppingResponse
	if err := c.post(ctx, "/shopping", query, num, &resp); err != nil {
		return nil, err
	}
	switch {
	case len(resp.Shopping) > 0:
		return resp.Shopping, nil
	case len(resp.Organic) > 0:
		return resp.Organic, nil
	default:
		return resp.Products, nil
	}
}

func (c *httpClient) Search(ctx context.Context, query string, num int) ([]OrganicResult, error) {
	var resp searchResponse
	if err := c.post(ctx, "/search", query, num, &resp); err != nil {
		return nil, err
	}
	return resp.Organic, nil
}

// post sends the request under the retry policy, trying each base URL in
// order within one attempt.
func (c *httpClient) post(ctx context.Context, path, query string, num int, out any) error {
	body, err := json.Marshal(searchRequest{Q: query, Num: num})
	if err != nil {
		return eris.Wrap(err, "serper: marshal request")
	}
	return resilience.Do(ctx, c.retry, "serper", func(ctx context.Context) error {
		return c.postOnce(ctx, path, body, out)
	})
}

func (c *httpClient) postOnce(ctx context.Context, path string, body []byte, out any) error {
	var lastErr error
	for _, base := range c.baseURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "serper: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrapf(err, "serper: send request to %s", base)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			lastErr = eris.Wrap(err, "serper: read response")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = eris.Errorf("serper: %s status %d: %s", base, resp.StatusCode, truncate(respBody, 400))
			if resilience.RetryableStatus(resp.StatusCode) {
				lastErr = resilience.MarkTransient(lastErr, resp.StatusCode)
			}
			continue
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			lastErr = eris.Wrap(err, "serper: unmarshal response")
			continue
		}
		return nil
	}

	return lastErr
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
