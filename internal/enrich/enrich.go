// Package enrich fills in missing variant and description metadata by
// fetching product landing pages, and validates surviving links. All
// enrichment is best-effort: failures never fail the overall search.
package enrich

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/pkg/serper"
	"github.com/stylecart/shop-cli/pkg/tavily"
)

const (
	defaultWorkers  = 5
	fetchTimeout    = 12 * time.Second
	maxBodyBytes    = 512 * 1024
	resolveResults  = 3
	browserUA       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	acceptHTMLTypes = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// IsSearchRedirect reports whether a link points back into a search
// engine rather than a retailer page.
func IsSearchRedirect(link string) bool {
	return strings.Contains(link, "google.com/search")
}

// Engine resolves direct retailer links and extracts variants and
// descriptions from product pages under a bounded worker pool.
type Engine struct {
	serper  serper.Client // nil when unconfigured
	tavily  tavily.Client // nil when unconfigured
	http    *http.Client
	limiter *rate.Limiter
	workers int
}

// Option configures the engine.
type Option func(*Engine)

// WithWorkers sets the concurrency cap. Pass 1 for serial enrichment.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithHTTPClient overrides the page-fetch client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Engine) {
		e.http = hc
	}
}

// NewEngine creates an enrichment engine. Either search client may be nil;
// the corresponding link-resolution step is skipped.
func NewEngine(serperClient serper.Client, tavilyClient tavily.Client, opts ...Option) *Engine {
	e := &Engine{
		serper: serperClient,
		tavily: tavilyClient,
		http: &http.Client{
			Timeout: fetchTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
		workers: defaultWorkers,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich fills missing variants and descriptions in place. Only products
// lacking every variant category are attempted. Each product is written
// by exactly one worker; there is no cross-candidate ordering guarantee.
func (e *Engine) Enrich(ctx context.Context, products []model.Product) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range products {
		if !products[i].Variants.Empty() {
			continue
		}
		g.Go(func() error {
			e.enrichOne(gCtx, &products[i])
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) enrichOne(ctx context.Context, p *model.Product) {
	link := p.Link

	// Resolve a direct retailer link when the result points back into a
	// search engine (or has no link at all).
	if e.serper != nil && (link == "" || IsSearchRedirect(link)) {
		if resolved, snippet := e.resolveSerper(ctx, p.Name, p.Retailer); resolved != "" {
			p.Link = resolved
			link = resolved
			if snippet != "" && p.ShortDescription == "" {
				p.ShortDescription = snippet
			}
		}
	}
	if e.tavily != nil && (link == "" || IsSearchRedirect(link)) {
		if resolved, snippet := e.resolveTavily(ctx, p.Name, p.Retailer); resolved != "" {
			p.Link = resolved
			link = resolved
			if snippet != "" && p.ShortDescription == "" {
				p.ShortDescription = snippet
			}
		}
	}

	if link == "" {
		return
	}

	page, ok := e.fetchHTML(ctx, link)
	if !ok {
		return
	}

	if v, found := ParseVariants(page); found {
		p.Variants = v
		return
	}

	if p.ShortDescription == "" {
		if desc := ParseMetaDescription(page); desc != "" {
			p.ShortDescription = desc
		}
	}
}

func (e *Engine) resolveSerper(ctx context.Context, name, retailer string) (link, snippet string) {
	results, err := e.serper.Search(ctx, name+" "+retailer, resolveResults)
	if err != nil {
		zap.L().Debug("enrich: link resolution failed",
			zap.String("adapter", "serper"),
			zap.String("product", name),
			zap.Error(err),
		)
		return "", ""
	}
	if len(results) == 0 {
		return "", ""
	}
	return results[0].Link, strings.TrimSpace(results[0].Snippet)
}

func (e *Engine) resolveTavily(ctx context.Context, name, retailer string) (link, snippet string) {
	results, err := e.tavily.Search(ctx, name+" "+retailer, resolveResults)
	if err != nil {
		zap.L().Debug("enrich: link resolution failed",
			zap.String("adapter", "tavily"),
			zap.String("product", name),
			zap.Error(err),
		)
		return "", ""
	}
	for _, r := range results {
		if r.URL != "" {
			return r.URL, strings.TrimSpace(r.Content)
		}
	}
	return "", ""
}

// fetchHTML retrieves a page body, returning ok=false on any transport
// error or non-HTML content type.
func (e *Engine) fetchHTML(ctx context.Context, url string) (string, bool) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", acceptHTMLTypes)

	resp, err := e.http.Do(req)
	if err != nil {
		zap.L().Debug("enrich: page fetch failed", zap.String("url", url), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return "", false
	}
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); !strings.Contains(ct, "html") {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", false
	}
	return string(body), true
}
