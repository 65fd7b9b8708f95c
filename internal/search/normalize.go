package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/query"
	"github.com/stylecart/shop-cli/pkg/serper"
	"github.com/stylecart/shop-cli/pkg/tavily"
)

// defaultDelivery stands in when a source reports no delivery estimate.
const defaultDelivery = "3-5 days"

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

var titleCaser = cases.Title(language.English)

// FromShopping maps one shopping item to a canonical product. The second
// return is false for malformed records: empty name or non-positive
// price. Such records never enter the candidate pool.
func FromShopping(it serper.ShoppingItem) (model.Product, bool) {
	name := strings.TrimSpace(it.Title)
	if name == "" {
		return model.Product{}, false
	}

	price := it.ExtractedPrice
	if price <= 0 {
		raw := nonNumericRe.ReplaceAllString(string(it.Price), "")
		price, _ = strconv.ParseFloat(raw, 64)
	}
	if price <= 0 {
		return model.Product{}, false
	}

	retailer := strings.TrimSpace(it.Source)
	if retailer == "" {
		retailer = DomainToRetailer(it.Link)
	}

	delivery := strings.TrimSpace(it.Delivery)
	if delivery == "" {
		delivery = defaultDelivery
	}

	return model.Product{
		Name:             name,
		Price:            math.Round(price*100) / 100,
		DeliveryEstimate: delivery,
		Retailer:         retailer,
		ImageURL:         extractImageURL(it),
		Link:             it.Link,
		ShortDescription: strings.TrimSpace(it.Snippet),
	}, true
}

// FromOrganic maps an organic web result to a product. Organic results
// carry no price and belong to a lower trust tier; they only reach the
// caller through the stage-4 fallback, which replaces the priced pool
// outright.
func FromOrganic(r serper.OrganicResult) (model.Product, bool) {
	name := strings.TrimSpace(r.Title)
	if name == "" || r.Link == "" {
		return model.Product{}, false
	}
	return model.Product{
		Name:             name,
		DeliveryEstimate: "Unknown",
		Retailer:         DomainToRetailer(r.Link),
		Link:             r.Link,
		ShortDescription: strings.TrimSpace(r.Snippet),
	}, true
}

// FromTavily maps a Tavily result to a product (same trust tier as organic).
func FromTavily(r tavily.Result) (model.Product, bool) {
	name := strings.TrimSpace(r.Title)
	if name == "" {
		return model.Product{}, false
	}
	retailer := "Unknown"
	if r.URL != "" {
		retailer = DomainToRetailer(r.URL)
	}
	return model.Product{
		Name:             name,
		DeliveryEstimate: "Unknown",
		Retailer:         retailer,
		ImageURL:         r.Image,
		Link:             r.URL,
		ShortDescription: strings.TrimSpace(r.Content),
	}, true
}

// extractImageURL tries the known image fields in priority order, then the
// thumbnails list, accepting only absolute http(s) URLs.
func extractImageURL(it serper.ShoppingItem) string {
	for _, c := range []string{it.ImageURL, it.Thumbnail} {
		if u := strings.TrimSpace(c); isAbsoluteHTTP(u) {
			return u
		}
	}
	if len(it.Thumbnails) > 0 {
		if u := strings.TrimSpace(it.Thumbnails[0]); isAbsoluteHTTP(u) {
			return u
		}
	}
	return ""
}

func isAbsoluteHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// DomainToRetailer derives a display retailer name from a URL, e.g.
// "https://www.amazon.co.uk/dp/1" -> "Amazon.com".
func DomainToRetailer(link string) string {
	if link == "" {
		return "Unknown"
	}
	host := strings.ToLower(link)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	base := host
	if i := strings.IndexByte(host, '.'); i >= 0 {
		base = host[:i]
	}
	if base == "" {
		return "Unknown"
	}
	return titleCaser.String(base) + ".com"
}

// FilterConstraints drops products over budget or past the delivery
// deadline. Unparseable delivery estimates pass the filter. Running the
// filter on its own output is a no-op.
func FilterConstraints(products []model.Product, maxPrice *float64, maxDays *int) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if maxPrice != nil && p.Price > *maxPrice {
			continue
		}
		if maxDays != nil {
			if d, ok := query.ParseEstimateDays(p.DeliveryEstimate); ok && d > *maxDays {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
