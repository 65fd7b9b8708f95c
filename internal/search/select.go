package search

import (
	"sort"
	"strings"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/retailer"
)

// pool accumulates deduplicated candidates for one item across stages.
// The waterfall controller is its sole owner.
type pool struct {
	seen       map[model.Key]struct{}
	candidates []model.Product
	retailers  *retailer.List
}

func newPool(retailers *retailer.List) *pool {
	return &pool{
		seen:      make(map[model.Key]struct{}),
		retailers: retailers,
	}
}

// add appends candidates not seen in earlier stages, then re-sorts the
// pool by (retailer rank, retailer name, price) ascending.
func (p *pool) add(candidates []model.Product) {
	for _, c := range candidates {
		k := c.Key()
		if _, ok := p.seen[k]; ok {
			continue
		}
		p.seen[k] = struct{}{}
		p.candidates = append(p.candidates, c)
	}
	sortByTrust(p.candidates, p.retailers)
}

// sortByTrust orders products by allowlist rank, then retailer name, then
// price. The final output ordering is deterministic because every stage
// and the post-enrichment merge re-apply this sort.
func sortByTrust(products []model.Product, retailers *retailer.List) {
	sort.SliceStable(products, func(i, j int) bool {
		ri, rj := retailers.Rank(products[i].Retailer), retailers.Rank(products[j].Retailer)
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(products[i].Retailer), strings.ToLower(products[j].Retailer)
		if ni != nj {
			return ni < nj
		}
		return products[i].Price < products[j].Price
	})
}

// selectPerItem picks up to target results, preferring one per distinct
// retailer, then filling leftover slots with remaining candidates in
// sorted order. Retailer diversity is preferred, never mandatory.
func selectPerItem(candidates []model.Product, target int) []model.Product {
	selected := make([]model.Product, 0, target)
	picked := make(map[model.Key]struct{}, target)
	retailersSeen := make(map[string]struct{}, target)

	for _, c := range candidates {
		if len(selected) >= target {
			break
		}
		if _, ok := retailersSeen[c.Retailer]; ok {
			continue
		}
		retailersSeen[c.Retailer] = struct{}{}
		picked[c.Key()] = struct{}{}
		selected = append(selected, c)
	}

	if len(selected) < target {
		for _, c := range candidates {
			if len(selected) >= target {
				break
			}
			if _, ok := picked[c.Key()]; ok {
				continue
			}
			picked[c.Key()] = struct{}{}
			selected = append(selected, c)
		}
	}

	return selected
}

// primaryOnlyIfAny keeps only allowlisted-retailer candidates when at
// least one exists; otherwise the full list survives. Stage 1 only.
func primaryOnlyIfAny(candidates []model.Product, retailers *retailer.List) []model.Product {
	primary := make([]model.Product, 0, len(candidates))
	for _, c := range candidates {
		if retailers.IsPrimary(c.Retailer) {
			primary = append(primary, c)
		}
	}
	if len(primary) > 0 {
		return primary
	}
	return candidates
}

// applyVariantConstraints force-sets the requested size and color as
// single-element variant lists on every selected result. The requested
// variant is reported as a label; retailer stock is not verified.
func applyVariantConstraints(products []model.Product, size, color string) {
	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)
	for i := range products {
		if size != "" {
			products[i].Variants.Sizes = []string{size}
		}
		if color != "" {
			products[i].Variants.Colors = []string{color}
		}
	}
}
