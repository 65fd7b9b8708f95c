package enrich

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stylecart/shop-cli/internal/model"
)

const (
	linkCheckWorkers = 6
	linkCheckTimeout = 10 * time.Second
)

// LinkChecker drops results whose links are missing or dead.
type LinkChecker struct {
	http    *http.Client
	workers int
}

// LinkOption configures a LinkChecker.
type LinkOption func(*LinkChecker)

// WithCheckHTTPClient overrides the probe client.
func WithCheckHTTPClient(hc *http.Client) LinkOption {
	return func(lc *LinkChecker) {
		lc.http = hc
	}
}

// WithCheckWorkers sets the probe concurrency cap.
func WithCheckWorkers(n int) LinkOption {
	return func(lc *LinkChecker) {
		if n > 0 {
			lc.workers = n
		}
	}
}

// NewLinkChecker creates a LinkChecker with default probe settings.
func NewLinkChecker(opts ...LinkOption) *LinkChecker {
	lc := &LinkChecker{
		http: &http.Client{
			Timeout: linkCheckTimeout,
		},
		workers: linkCheckWorkers,
	}
	for _, o := range opts {
		o(lc)
	}
	return lc
}

// Filter drops linkless results. Results with direct retailer links are
// trusted without a live probe, since HEAD/GET checks against retailer
// sites trip bot blocking. Only when every surviving link is a search
// redirect does the checker probe each one and keep sub-400 responses.
func (lc *LinkChecker) Filter(ctx context.Context, products []model.Product) []model.Product {
	var direct, redirects []model.Product
	for _, p := range products {
		if p.Link == "" {
			continue
		}
		if IsSearchRedirect(p.Link) {
			redirects = append(redirects, p)
		} else {
			direct = append(direct, p)
		}
	}

	if len(direct) > 0 {
		return direct
	}
	if len(redirects) == 0 {
		return nil
	}

	// Probe each distinct link once.
	var mu sync.Mutex
	alive := make(map[string]bool, len(redirects))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(lc.workers)
	for _, p := range redirects {
		link := p.Link
		mu.Lock()
		_, queued := alive[link]
		if !queued {
			alive[link] = false
		}
		mu.Unlock()
		if queued {
			continue
		}
		g.Go(func() error {
			ok := lc.check(gCtx, link)
			mu.Lock()
			alive[link] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]model.Product, 0, len(redirects))
	for _, p := range redirects {
		if alive[p.Link] {
			kept = append(kept, p)
		}
	}
	return kept
}

// check probes a link with HEAD, falling back to GET.
func (lc *LinkChecker) check(ctx context.Context, url string) bool {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return false
		}
		req.Header.Set("User-Agent", browserUA)
		req.Header.Set("Accept", acceptHTMLTypes)

		resp, err := lc.http.Do(req)
		if err != nil {
			zap.L().Debug("linkcheck: probe failed",
				zap.String("method", method),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		resp.Body.Close() //nolint:errcheck
		if resp.StatusCode < 400 {
			return true
		}
	}
	return false
}
