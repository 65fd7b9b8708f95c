package enrich

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/stylecart/shop-cli/internal/model"
)

// variantListCap bounds each variant list; retailer pages can carry
// hundreds of swatch nodes.
const variantListCap = 12

var commonColors = map[string]struct{}{
	"black": {}, "white": {}, "gray": {}, "grey": {}, "blue": {},
	"navy": {}, "red": {}, "green": {}, "olive": {}, "brown": {},
	"beige": {}, "tan": {}, "cream": {}, "yellow": {}, "orange": {},
	"purple": {}, "pink": {}, "burgundy": {},
}

var blockedValues = map[string]struct{}{
	"select": {}, "select size": {}, "select color": {}, "select colour": {},
	"choose": {}, "choose size": {}, "choose color": {}, "choose colour": {},
}

// cleanVariantValue strips picker placeholder text and "Size " prefixes.
// Returns "" when the value carries no information.
func cleanVariantValue(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if _, blocked := blockedValues[lower]; blocked {
		return ""
	}
	if strings.HasPrefix(lower, "size ") {
		v = strings.TrimSpace(v[5:])
	}
	return v
}

// detectVariantType classifies a <select> element by its identifying
// attributes.
func detectVariantType(attrs map[string]string) string {
	var hay strings.Builder
	for _, k := range []string{"name", "id", "aria-label", "data-testid", "class"} {
		if v := attrs[k]; v != "" {
			hay.WriteString(strings.ToLower(v))
			hay.WriteByte(' ')
		}
	}
	h := hay.String()
	switch {
	case strings.Contains(h, "size"):
		return "size"
	case strings.Contains(h, "color"), strings.Contains(h, "colour"), strings.Contains(h, "swatch"):
		return "color"
	case strings.Contains(h, "material"), strings.Contains(h, "fabric"):
		return "material"
	default:
		return ""
	}
}

func dedupeCapped(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= variantListCap {
			break
		}
	}
	return out
}

// ParseVariants extracts size/color/material option lists from product
// page HTML: <select>/<option> trees, data-size/data-color/data-material
// attributes, and aria-labeled color swatches. The second return is false
// when nothing was found.
func ParseVariants(page string) (model.Variants, bool) {
	var sizes, colors, materials []string

	tok := html.NewTokenizer(strings.NewReader(page))
	currentSelect := ""
	inOption := false
	optionValue := ""
	var optionText strings.Builder

	flushOption := func() {
		raw := optionValue
		if raw == "" {
			raw = strings.TrimSpace(optionText.String())
		}
		if v := cleanVariantValue(raw); v != "" {
			switch currentSelect {
			case "size":
				sizes = append(sizes, v)
			case "color":
				colors = append(colors, v)
			case "material":
				materials = append(materials, v)
			}
		}
		inOption = false
		optionValue = ""
		optionText.Reset()
	}

	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			t := tok.Token()
			attrs := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attrs[strings.ToLower(a.Key)] = a.Val
			}

			switch t.Data {
			case "select":
				currentSelect = detectVariantType(attrs)
			case "option":
				if inOption {
					flushOption()
				}
				inOption = true
				optionValue = attrs["value"]
				optionText.Reset()
			}

			for key, value := range attrs {
				if value == "" {
					continue
				}
				switch {
				case strings.Contains(key, "data-size"):
					if v := cleanVariantValue(value); v != "" {
						sizes = append(sizes, v)
					}
				case strings.Contains(key, "data-color"), strings.Contains(key, "data-colour"):
					if v := cleanVariantValue(value); v != "" {
						colors = append(colors, v)
					}
				case strings.Contains(key, "data-material"):
					if v := cleanVariantValue(value); v != "" {
						materials = append(materials, v)
					}
				}
			}

			if label := attrs["aria-label"]; label != "" {
				class := strings.ToLower(attrs["class"])
				if strings.Contains(class, "color") || strings.Contains(class, "colour") || strings.Contains(class, "swatch") {
					if v := cleanVariantValue(label); v != "" {
						colors = append(colors, v)
					}
				} else if _, ok := commonColors[strings.ToLower(label)]; ok {
					colors = append(colors, strings.TrimSpace(label))
				}
			}

		case html.TextToken:
			if inOption {
				optionText.Write(tok.Text())
			}

		case html.EndTagToken:
			t := tok.Token()
			switch t.Data {
			case "option":
				flushOption()
			case "select":
				if inOption {
					flushOption()
				}
				currentSelect = ""
			}
		}
	}

	v := model.Variants{
		Sizes:     dedupeCapped(sizes),
		Colors:    dedupeCapped(colors),
		Materials: dedupeCapped(materials),
	}
	return v, !v.Empty()
}

// ParseMetaDescription returns the page's meta/OpenGraph description, or
// "" when absent.
func ParseMetaDescription(page string) string {
	tok := html.NewTokenizer(strings.NewReader(page))
	desc := ""
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return desc
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		t := tok.Token()
		if t.Data != "meta" {
			continue
		}
		attrs := make(map[string]string, len(t.Attr))
		for _, a := range t.Attr {
			attrs[strings.ToLower(a.Key)] = a.Val
		}
		name := strings.ToLower(attrs["name"])
		prop := strings.ToLower(attrs["property"])
		if name == "description" || prop == "og:description" || prop == "twitter:description" {
			if content := strings.TrimSpace(attrs["content"]); content != "" {
				desc = content
			}
		}
	}
}
