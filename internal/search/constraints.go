package search

import (
	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/query"
)

// ConstraintsFromRequest builds SearchConstraints from the free-form
// fields produced by the requirement extractor. Any field may be empty.
func ConstraintsFromRequest(budget, deadline, size, style, target, color string, items []string) model.SearchConstraints {
	cons := model.SearchConstraints{
		Size:   size,
		Style:  style,
		Target: target,
		Color:  color,
	}
	if v, ok := query.ParseBudget(budget); ok {
		cons.MaxPrice = &v
	}
	if d, ok := query.ParseDeadlineDays(deadline); ok {
		cons.MaxDeliveryDays = &d
	}
	for _, it := range items {
		cons.Items = append(cons.Items, model.ItemSpec{Name: it})
	}
	return cons
}
