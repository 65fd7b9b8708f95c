// Package model defines the canonical data types shared across the search
// and ranking pipeline.
package model

// Variants holds the size/color/material options known for a product.
type Variants struct {
	Sizes     []string `json:"sizes"`
	Colors    []string `json:"colors"`
	Materials []string `json:"materials"`
}

// Empty reports whether no variant category has any values.
func (v Variants) Empty() bool {
	return len(v.Sizes) == 0 && len(v.Colors) == 0 && len(v.Materials) == 0
}

// Product is the canonical result shape every retrieval source is mapped
// into at the normalization boundary. Downstream code never branches on
// the originating source's representation.
type Product struct {
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	DeliveryEstimate string   `json:"delivery_estimate"`
	Variants         Variants `json:"variants"`
	Retailer         string   `json:"retailer"`
	ImageURL         string   `json:"image_url,omitempty"`
	Link             string   `json:"link,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	Item             string   `json:"item,omitempty"`
}

// Key identifies a product for deduplication across waterfall stages.
type Key struct {
	Name     string
	Retailer string
}

// Key returns the deduplication identity of the product. Matching is
// case-sensitive and exact.
func (p Product) Key() Key {
	return Key{Name: p.Name, Retailer: p.Retailer}
}
