// Package search implements the staged retrieval waterfall: scoped
// shopping search first, escalating to broader queries, an alternate
// engine, and finally organic web results only as earlier stages
// under-deliver.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stylecart/shop-cli/internal/enrich"
	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/retailer"
	"github.com/stylecart/shop-cli/pkg/serper"
	"github.com/stylecart/shop-cli/pkg/tavily"
)

// Config holds the waterfall tunables.
type Config struct {
	// TargetPerItem is the number of results to collect per item.
	TargetPerItem int
	// ShoppingNum / ExpandedNum / AlternateNum / OrganicNum size the
	// per-stage fetches.
	ShoppingNum  int
	ExpandedNum  int
	AlternateNum int
	OrganicNum   int
	// MaxConcurrentItems bounds how many item waterfalls run at once.
	MaxConcurrentItems int
}

// DefaultConfig returns the reference tunables.
func DefaultConfig() Config {
	return Config{
		TargetPerItem:      5,
		ShoppingNum:        20,
		ExpandedNum:        25,
		AlternateNum:       10,
		OrganicNum:         10,
		MaxConcurrentItems: 3,
	}
}

// Enricher fills missing variant/description metadata in place.
type Enricher interface {
	Enrich(ctx context.Context, products []model.Product)
}

// LinkFilter drops results with missing or dead links.
type LinkFilter interface {
	Filter(ctx context.Context, products []model.Product) []model.Product
}

// Controller orchestrates the retrieval waterfall per requested item. It
// exclusively owns the per-item dedup set and candidate pool; no state
// survives across Search calls.
type Controller struct {
	shopping  serper.Client // nil when no Serper credentials
	alternate tavily.Client // nil when no Tavily credentials
	retailers *retailer.List
	enricher  Enricher
	links     LinkFilter
	cfg       Config
}

// NewController creates a waterfall controller. Either search client may
// be nil; a nil shopping client makes every search return empty results.
func NewController(shopping serper.Client, alternate tavily.Client, retailers *retailer.List, enricher Enricher, links LinkFilter, cfg Config) *Controller {
	if retailers == nil {
		retailers = retailer.Default()
	}
	if cfg.TargetPerItem <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		shopping:  shopping,
		alternate: alternate,
		retailers: retailers,
		enricher:  enricher,
		links:     links,
		cfg:       cfg,
	}
}

// Search runs the waterfall for every requested item and returns the
// merged candidate list plus the diagnostic trace. Adapter failures
// degrade to empty stages; only an empty item list short-circuits.
func (c *Controller) Search(ctx context.Context, cons model.SearchConstraints) ([]model.Product, *model.Trace, error) {
	trace := &model.Trace{
		SessionID:    uuid.NewString(),
		SerperKeySet: c.shopping != nil,
		TavilyKeySet: c.alternate != nil,
		Items:        make(map[string]*model.ItemTrace),
	}
	log := zap.L().With(zap.String("session", trace.SessionID))

	items := dedupeItems(cons.Items)
	if len(items) == 0 {
		log.Warn("search: no items requested")
		return nil, trace, nil
	}
	if c.shopping == nil {
		log.Warn("search: shopping adapter unconfigured, returning empty results")
		for _, it := range items {
			trace.Items[it.Name] = &model.ItemTrace{}
		}
		return nil, trace, nil
	}

	for _, it := range items {
		trace.Items[it.Name] = &model.ItemTrace{}
	}

	// Item waterfalls are independent; run them concurrently and keep the
	// request's item order in the merged output.
	perItem := make([][]model.Product, len(items))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrentItems)
	for i, it := range items {
		g.Go(func() error {
			perItem[i] = c.searchItem(gCtx, log, it, cons, trace.Items[it.Name])
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Product
	for _, ps := range perItem {
		all = append(all, ps...)
	}

	// Safety-net re-check of budget/delivery across the merged set. The
	// per-stage normalizers already filtered, so this is idempotent; if it
	// somehow empties the set, the unfiltered results are returned rather
	// than nothing.
	filtered := FilterConstraints(all, cons.MaxPrice, cons.MaxDeliveryDays)
	if len(filtered) == 0 {
		return all, trace, nil
	}
	return filtered, trace, nil
}

// searchItem runs the staged waterfall for a single item.
func (c *Controller) searchItem(ctx context.Context, log *zap.Logger, item model.ItemSpec, cons model.SearchConstraints, trace *model.ItemTrace) []model.Product {
	size := firstNonEmpty(item.Size, cons.Size)
	color := firstNonEmpty(item.Color, cons.Color)

	p := newPool(c.retailers)
	target := c.cfg.TargetPerItem
	var selected []model.Product

	stageFailed := func(stage string, err error) {
		trace.StageErrors = append(trace.StageErrors, fmt.Sprintf("%s: %v", stage, err))
		log.Warn("search: stage failed",
			zap.String("item", item.Name),
			zap.String("stage", stage),
			zap.Error(err),
		)
	}

	// Stage 1: scoped shopping search restricted to primary domains.
	scoped := c.buildQuery(item.Name, cons.Style, cons.Target, color, size, cons.MaxPrice, true)
	raw, err := c.shopping.Shopping(ctx, scoped, c.cfg.ShoppingNum)
	if err != nil {
		stageFailed("shopping", err)
	} else {
		trace.ShoppingRaw = len(raw)
		candidates := c.normalizeShopping(raw, cons)
		trace.ShoppingParsed = len(candidates)
		candidates = primaryOnlyIfAny(candidates, c.retailers)
		trace.PrimaryOnly = len(candidates)
		p.add(candidates)
	}
	selected = selectPerItem(p.candidates, target)
	trace.SelectedInitial = len(selected)

	// Stage 2: expanded, domain-unrestricted query.
	expanded := c.buildQuery("buy "+item.Name, cons.Style, cons.Target, color, "", cons.MaxPrice, false)
	if len(selected) < target {
		raw2, err := c.shopping.Shopping(ctx, expanded, c.cfg.ExpandedNum)
		if err != nil {
			stageFailed("expanded", err)
		} else {
			trace.ExpandedRaw = len(raw2)
			candidates := c.normalizeShopping(raw2, cons)
			trace.ExpandedParsed = len(candidates)
			p.add(candidates)
			selected = selectPerItem(p.candidates, target)
		}
		trace.SelectedExpanded = len(selected)
	}

	// Stage 3: alternate engine.
	if len(selected) < target && c.alternate != nil {
		q := c.buildQuery(item.Name, cons.Style, cons.Target, color, "", cons.MaxPrice, false)
		altRaw, err := c.alternate.Search(ctx, q, c.cfg.AlternateNum)
		if err != nil {
			stageFailed("alternate", err)
		} else {
			trace.AlternateRaw = len(altRaw)
			var candidates []model.Product
			for _, r := range altRaw {
				if prod, ok := FromTavily(r); ok {
					candidates = append(candidates, prod)
				}
			}
			trace.AlternateParsed = len(candidates)
			p.add(candidates)
			selected = selectPerItem(p.candidates, target)
		}
		trace.SelectedAlternate = len(selected)
	}

	if c.enricher != nil {
		c.enricher.Enrich(ctx, selected)
	}
	applyVariantConstraints(selected, size, color)
	trace.AfterEnrich = len(selected)

	for _, r := range selected {
		if r.Link != "" && !enrich.IsSearchRedirect(r.Link) {
			trace.NonSearchLinks++
		}
	}

	// Stage 4: organic fallback. Organic results are a different trust
	// tier, so they replace the pool instead of merging into it.
	if trace.NonSearchLinks == 0 {
		trace.FallbackOrganic = true
		organic, err := c.shopping.Search(ctx, expanded, c.cfg.OrganicNum)
		if err != nil {
			stageFailed("organic", err)
		} else {
			trace.OrganicRaw = len(organic)
			var candidates []model.Product
			for _, r := range organic {
				if prod, ok := FromOrganic(r); ok {
					candidates = append(candidates, prod)
				}
			}
			trace.OrganicParsed = len(candidates)
			if len(candidates) > 0 {
				sortByTrust(candidates, c.retailers)
				selected = selectPerItem(candidates, target)
			}
		}

		if len(selected) < target && c.alternate != nil {
			trace.FallbackAlternate = true
			altRaw, err := c.alternate.Search(ctx, expanded, c.cfg.OrganicNum)
			if err != nil {
				stageFailed("organic-alternate", err)
			} else {
				var candidates []model.Product
				for _, r := range altRaw {
					if prod, ok := FromTavily(r); ok {
						candidates = append(candidates, prod)
					}
				}
				if len(candidates) > 0 {
					sortByTrust(candidates, c.retailers)
					selected = selectPerItem(candidates, target)
				}
			}
		}
	}

	if c.links != nil {
		selected = c.links.Filter(ctx, selected)
	}
	trace.AfterLinkFilter = len(selected)

	for i := range selected {
		selected[i].Item = item.Name
	}
	return selected
}

// normalizeShopping converts raw shopping items to canonical products and
// applies the budget/delivery filter.
func (c *Controller) normalizeShopping(raw []serper.ShoppingItem, cons model.SearchConstraints) []model.Product {
	candidates := make([]model.Product, 0, len(raw))
	for _, it := range raw {
		if prod, ok := FromShopping(it); ok {
			candidates = append(candidates, prod)
		}
	}
	return FilterConstraints(candidates, cons.MaxPrice, cons.MaxDeliveryDays)
}

// buildQuery assembles a search query from the non-empty request fields,
// with an optional budget clause and primary-domain site filter.
func (c *Controller) buildQuery(item, style, target, color, size string, maxPrice *float64, siteScoped bool) string {
	parts := make([]string, 0, 6)
	for _, s := range []string{item, style, target, color} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if size = strings.TrimSpace(size); size != "" {
		parts = append(parts, "size "+size)
	}
	q := strings.Join(parts, " ")
	if maxPrice != nil {
		q += fmt.Sprintf(" under $%.0f", *maxPrice)
	}
	if siteScoped {
		domains := c.retailers.Domains()
		if len(domains) > 0 {
			filters := make([]string, len(domains))
			for i, d := range domains {
				filters[i] = "site:" + d
			}
			q += " (" + strings.Join(filters, " OR ") + ")"
		}
	}
	return q
}

// dedupeItems drops repeated item names while keeping request order.
func dedupeItems(items []model.ItemSpec) []model.ItemSpec {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.ItemSpec, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		it.Name = name
		out = append(out, it)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
