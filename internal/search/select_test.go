package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/retailer"
)

func TestPoolAdd_DedupAcrossStages(t *testing.T) {
	p := newPool(retailer.Default())

	p.add([]model.Product{
		{Name: "White Tee", Retailer: "Zara", Price: 20},
		{Name: "White Tee", Retailer: "Uniqlo", Price: 15},
	})
	// A later stage surfaces the same Zara tee at a different price; the
	// (name, retailer) identity from the earlier stage wins.
	p.add([]model.Product{
		{Name: "White Tee", Retailer: "Zara", Price: 18},
		{Name: "Black Tee", Retailer: "Zara", Price: 22},
	})

	require.Len(t, p.candidates, 3)
	for _, c := range p.candidates {
		if c.Retailer == "Zara" && c.Name == "White Tee" {
			assert.Equal(t, 20.0, c.Price)
		}
	}
}

func TestPoolAdd_SortedByTrust(t *testing.T) {
	p := newPool(retailer.Default())
	p.add([]model.Product{
		{Name: "A", Retailer: "Obscure Boutique", Price: 10},
		{Name: "B", Retailer: "Uniqlo", Price: 30},
		{Name: "C", Retailer: "Zara", Price: 50},
	})

	// Zara ranks above Uniqlo in the default allowlist; unlisted retailers
	// come last.
	require.Len(t, p.candidates, 3)
	assert.Equal(t, "Zara", p.candidates[0].Retailer)
	assert.Equal(t, "Uniqlo", p.candidates[1].Retailer)
	assert.Equal(t, "Obscure Boutique", p.candidates[2].Retailer)
}

func TestSortByTrust_TiesByNameThenPrice(t *testing.T) {
	rs := retailer.Default()
	products := []model.Product{
		{Name: "A", Retailer: "Nowhere Shop B", Price: 5},
		{Name: "B", Retailer: "Nowhere Shop A", Price: 9},
		{Name: "C", Retailer: "Nowhere Shop A", Price: 3},
	}
	sortByTrust(products, rs)

	assert.Equal(t, "Nowhere Shop A", products[0].Retailer)
	assert.Equal(t, 3.0, products[0].Price)
	assert.Equal(t, 9.0, products[1].Price)
	assert.Equal(t, "Nowhere Shop B", products[2].Retailer)
}

func TestSelectPerItem(t *testing.T) {
	candidates := []model.Product{
		{Name: "A", Retailer: "Zara", Price: 10},
		{Name: "B", Retailer: "Zara", Price: 12},
		{Name: "C", Retailer: "Uniqlo", Price: 14},
		{Name: "D", Retailer: "Nike", Price: 16},
	}

	t.Run("prefers distinct retailers first", func(t *testing.T) {
		got := selectPerItem(candidates, 3)
		require.Len(t, got, 3)
		assert.Equal(t, "A", got[0].Name)
		assert.Equal(t, "C", got[1].Name)
		assert.Equal(t, "D", got[2].Name)
	})

	t.Run("fills leftover slots from repeated retailers", func(t *testing.T) {
		got := selectPerItem(candidates, 4)
		require.Len(t, got, 4)
		assert.Equal(t, "B", got[3].Name)
	})

	t.Run("never duplicates a result", func(t *testing.T) {
		got := selectPerItem(candidates, 10)
		require.Len(t, got, 4)
		seen := make(map[model.Key]struct{})
		for _, p := range got {
			_, dup := seen[p.Key()]
			assert.False(t, dup)
			seen[p.Key()] = struct{}{}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, selectPerItem(nil, 5))
	})
}

func TestPrimaryOnlyIfAny(t *testing.T) {
	rs := retailer.Default()

	mixed := []model.Product{
		{Name: "A", Retailer: "Zara"},
		{Name: "B", Retailer: "Obscure Boutique"},
	}
	got := primaryOnlyIfAny(mixed, rs)
	require.Len(t, got, 1)
	assert.Equal(t, "Zara", got[0].Retailer)

	unlisted := []model.Product{
		{Name: "B", Retailer: "Obscure Boutique"},
		{Name: "C", Retailer: "Corner Store"},
	}
	assert.Equal(t, unlisted, primaryOnlyIfAny(unlisted, rs))
}

func TestApplyVariantConstraints(t *testing.T) {
	products := []model.Product{
		{Name: "A", Variants: model.Variants{Sizes: []string{"S", "M", "L"}, Colors: []string{"red"}}},
		{Name: "B"},
	}
	applyVariantConstraints(products, "M", "navy")

	for _, p := range products {
		assert.Equal(t, []string{"M"}, p.Variants.Sizes)
		assert.Equal(t, []string{"navy"}, p.Variants.Colors)
	}
}

func TestApplyVariantConstraints_EmptyLeavesVariants(t *testing.T) {
	products := []model.Product{
		{Name: "A", Variants: model.Variants{Sizes: []string{"S", "M"}}},
	}
	applyVariantConstraints(products, "", " ")
	assert.Equal(t, []string{"S", "M"}, products[0].Variants.Sizes)
	assert.Empty(t, products[0].Variants.Colors)
}
