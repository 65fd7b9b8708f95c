package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantsEmpty(t *testing.T) {
	assert.True(t, Variants{}.Empty())
	assert.False(t, Variants{Sizes: []string{"M"}}.Empty())
	assert.False(t, Variants{Colors: []string{"navy"}}.Empty())
	assert.False(t, Variants{Materials: []string{"wool"}}.Empty())
}

func TestProductKey(t *testing.T) {
	a := Product{Name: "Denim Jacket", Retailer: "Zara", Price: 49}
	b := Product{Name: "Denim Jacket", Retailer: "Zara", Price: 59}
	c := Product{Name: "denim jacket", Retailer: "Zara"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
