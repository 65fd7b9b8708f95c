// Package retailer ranks results by a curated allowlist of trusted
// retailers. The allowlist is loaded once at startup and read-only after.
package retailer

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

var defaultNames = []string{
	"Zara", "H&M", "Uniqlo", "Pull&Bear", "Bershka", "Stradivarius",
	"Mango", "COS", "Massimo Dutti", "Nike", "Adidas", "Puma",
	"New Balance", "Reebok", "Under Armour", "Decathlon", "Amazon",
	"ASOS", "Zalando", "Farfetch", "SSENSE", "eBay", "Uniqlo U",
	"Arket", "Banana Republic", "Gap", "Abercrombie & Fitch",
	"Foot Locker", "JD Sports", "DSW", "Aldo", "Clarks", "Dr. Martens",
}

// Match keywords cover common variants of the allowlist names, e.g.
// "uniqlo.com" derived retailer strings.
var defaultKeywords = []string{
	"zara", "hm", "h&m", "uniqlo", "pull&bear", "pullandbear", "bershka",
	"stradivarius", "mango", "cos", "massimodutti", "massimo", "nike",
	"adidas", "puma", "newbalance", "reebok", "underarmour", "decathlon",
	"amazon", "asos", "zalando", "farfetch", "ssense", "ebay", "arket",
	"bananarepublic", "gap", "abercrombie", "fitch", "footlocker",
	"jdsports", "dsw", "aldo", "clarks", "drmartens",
}

// Domains used in the stage-1 site-restricted query. Deliberately a short
// subset of the allowlist: site filters past ~10 domains stop improving
// shopping results.
var defaultDomains = []string{
	"nike.com", "adidas.com", "zara.com", "hm.com", "target.com",
	"uniqlo.com", "decathlon.com", "amazon.com", "asos.com",
}

// List is a retailer allowlist with rank and primary-match lookups.
type List struct {
	names      []string
	keywords   []string
	domains    []string
	normalized map[string]struct{}
}

// Default returns the built-in allowlist.
func Default() *List {
	return newList(defaultNames, defaultKeywords, defaultDomains)
}

type fileSpec struct {
	Retailers struct {
		Names    []string `yaml:"names"`
		Keywords []string `yaml:"keywords"`
		Domains  []string `yaml:"domains"`
	} `yaml:"retailers"`
}

// Load reads an allowlist override from a YAML file. Any section left
// empty falls back to the built-in defaults.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "retailer: read allowlist %s", path)
	}
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, eris.Wrap(err, "retailer: parse allowlist")
	}
	names := spec.Retailers.Names
	if len(names) == 0 {
		names = defaultNames
	}
	keywords := spec.Retailers.Keywords
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	domains := spec.Retailers.Domains
	if len(domains) == 0 {
		domains = defaultDomains
	}
	return newList(names, keywords, domains), nil
}

func newList(names, keywords, domains []string) *List {
	norm := make(map[string]struct{}, len(names))
	for _, n := range names {
		norm[normalize(n)] = struct{}{}
	}
	return &List{names: names, keywords: keywords, domains: domains, normalized: norm}
}

// normalize lowercases and strips spaces and ampersands so that
// "Pull&Bear", "pull bear", and "pullandbear"-style variants compare.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "&", "")
}

// Rank returns the allowlist index of the retailer: 0 is most trusted,
// unknown retailers get len(allowlist). Substring matches count in either
// direction so "Nike Store" and truncated domain names still rank.
func (l *List) Rank(name string) int {
	if name == "" {
		return len(l.names)
	}
	r := normalize(name)
	for i, n := range l.names {
		kn := normalize(n)
		if strings.Contains(r, kn) || strings.Contains(kn, r) {
			return i
		}
	}
	return len(l.names)
}

// IsPrimary reports whether the retailer matches the allowlist exactly or
// via a known keyword.
func (l *List) IsPrimary(name string) bool {
	if name == "" {
		return false
	}
	r := normalize(name)
	if _, ok := l.normalized[r]; ok {
		return true
	}
	for _, k := range l.keywords {
		if strings.Contains(r, k) {
			return true
		}
	}
	return false
}

// Domains returns the site-filter domain list for scoped queries.
func (l *List) Domains() []string {
	return l.domains
}

// Unranked is the rank assigned to unknown retailers.
func (l *List) Unranked() int {
	return len(l.names)
}
