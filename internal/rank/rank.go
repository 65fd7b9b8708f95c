// Package rank scores candidates against a weighted price/delivery/style
// model and produces deterministic explanations for the ordering.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/query"
)

// Weights is the price/delivery/style weighting triple. It always sums to
// 1.0 within rounding tolerance and is derived once per request.
type Weights struct {
	Price    float64 `json:"price"`
	Delivery float64 `json:"delivery"`
	Style    float64 `json:"style"`
}

// Candidate is a product prepared for scoring.
type Candidate struct {
	Name            string  `json:"name"`
	Retailer        string  `json:"retailer"`
	Price           float64 `json:"price"`
	DeliveryDays    float64 `json:"delivery_days"`
	Color           string  `json:"color,omitempty"`
	Style           string  `json:"style,omitempty"`
	PreferenceMatch float64 `json:"preference_match"`
}

// Decomposition is the per-dimension contribution breakdown of a score.
type Decomposition struct {
	PriceContrib    float64 `json:"price_contrib"`
	DeliveryContrib float64 `json:"delivery_contrib"`
	StyleContrib    float64 `json:"style_contrib"`
}

// Scored pairs a candidate with its final score and explanations. Created
// fresh per scoring call, never mutated afterwards, never persisted.
type Scored struct {
	Product          Candidate     `json:"product"`
	Score            float64       `json:"score"`
	Decomposition    Decomposition `json:"decomposition"`
	LocalExplanation string        `json:"why_local"`
	LLMExplanation   string        `json:"llm_explanation,omitempty"`
}

// Output is the complete ranking result, keyed by item category.
type Output struct {
	Weights Weights             `json:"weights"`
	Results map[string][]Scored `json:"results"`
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// WeightsFromPreferences derives the weighting triple from clicked
// preference keywords. With no preferences the split is balanced; each
// keyword hit shifts 0.35 toward its dimension before renormalizing.
func WeightsFromPreferences(preferences []string) Weights {
	if len(preferences) == 0 {
		return Weights{Price: 0.33, Delivery: 0.33, Style: 0.34}
	}

	w := Weights{Price: 0.15, Delivery: 0.15, Style: 0.15}
	for _, pref := range preferences {
		p := strings.ToLower(pref)
		switch {
		case strings.Contains(p, "budget") || strings.Contains(p, "price"):
			w.Price += 0.35
		case strings.Contains(p, "delivery") || strings.Contains(p, "fast"):
			w.Delivery += 0.35
		case strings.Contains(p, "style") || strings.Contains(p, "look"):
			w.Style += 0.35
		}
	}

	total := w.Price + w.Delivery + w.Style
	return Weights{
		Price:    round3(w.Price / total),
		Delivery: round3(w.Delivery / total),
		Style:    round3(w.Style / total),
	}
}

// StyleMatch computes the persona match for a product: color contributes
// 0.4, style 0.6, each binary on exact case-insensitive match. With no
// applicable persona weight the match defaults to 0.5.
func StyleMatch(productColor, productStyle string, persona model.Persona) float64 {
	score := 0.0
	totalWeight := 0.0

	if containsFold(persona.PreferredColors, productColor) {
		score += 0.4
	}
	totalWeight += 0.4

	if containsFold(persona.PreferredStyles, productStyle) {
		score += 0.6
	}
	totalWeight += 0.6

	if totalWeight <= 0 {
		return 0.5
	}
	return round3(score / totalWeight)
}

func containsFold(haystack []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystack {
		if strings.ToLower(h) == needle {
			return true
		}
	}
	return false
}

// ScoreProduct computes the weighted score and decomposition for one
// candidate. A non-positive budget or deadline neutralizes its dimension
// to 0.5 rather than skewing the ranking.
func ScoreProduct(c Candidate, w Weights, budget, maxDeliveryDays float64) Scored {
	priceScore := 0.5
	if budget > 0 {
		priceScore = math.Max(0, 1-c.Price/budget)
	}
	deliveryScore := 0.5
	if maxDeliveryDays > 0 {
		deliveryScore = math.Max(0, (maxDeliveryDays-c.DeliveryDays)/maxDeliveryDays)
	}
	styleScore := c.PreferenceMatch

	d := Decomposition{
		PriceContrib:    round3(w.Price * priceScore),
		DeliveryContrib: round3(w.Delivery * deliveryScore),
		StyleContrib:    round3(w.Style * styleScore),
	}

	return Scored{
		Product:          c,
		Score:            round3(w.Price*priceScore + w.Delivery*deliveryScore + w.Style*styleScore),
		Decomposition:    d,
		LocalExplanation: localExplanation(d),
	}
}

// localExplanation names the single highest-contribution dimension.
func localExplanation(d Decomposition) string {
	name, value := strongestContribution(d)
	return fmt.Sprintf("boosted mainly by %s (%.3f) as it contributes the most to the score", name, value)
}

func strongestContribution(d Decomposition) (string, float64) {
	name, value := "price", d.PriceContrib
	if d.DeliveryContrib > value {
		name, value = "delivery", d.DeliveryContrib
	}
	if d.StyleContrib > value {
		name, value = "style", d.StyleContrib
	}
	return name, value
}

// Ranker scores grouped candidates and explains the winner per category.
type Ranker struct {
	explainer Explainer
}

// NewRanker creates a Ranker. A nil explainer skips LLM explanations and
// falls back to the deterministic text.
func NewRanker(explainer Explainer) *Ranker {
	return &Ranker{explainer: explainer}
}

// Rank scores every candidate per category and sorts each category
// descending by score (stable: ties keep candidate order). The top item
// per category additionally gets a natural-language explanation; if the
// explanation collaborator fails, the deterministic text stands in.
func (r *Ranker) Rank(ctx context.Context, grouped map[string][]Candidate, w Weights, budget, maxDeliveryDays float64, persona model.Persona, preferences []string) Output {
	log := zap.L()
	log.Info("ranking start",
		zap.Float64("budget", budget),
		zap.Float64("max_delivery_days", maxDeliveryDays),
		zap.Strings("preferences", preferences),
		zap.Float64("weight_price", w.Price),
		zap.Float64("weight_delivery", w.Delivery),
		zap.Float64("weight_style", w.Style),
	)

	out := Output{Weights: w, Results: make(map[string][]Scored, len(grouped))}

	for category, candidates := range grouped {
		if len(candidates) == 0 {
			continue
		}

		scored := make([]Scored, len(candidates))
		for i, c := range candidates {
			c.PreferenceMatch = StyleMatch(c.Color, c.Style, persona)
			scored[i] = ScoreProduct(c, w, budget, maxDeliveryDays)
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})

		best := &scored[0]
		best.LLMExplanation = r.explain(ctx, *best, category, w, preferences)

		log.Info("ranking category complete",
			zap.String("category", category),
			zap.Int("candidates", len(candidates)),
			zap.String("top", best.Product.Name),
			zap.Float64("top_score", best.Score),
		)

		out.Results[category] = scored
	}

	return out
}

func (r *Ranker) explain(ctx context.Context, best Scored, category string, w Weights, preferences []string) string {
	if r.explainer == nil {
		return FallbackExplanation(best, category)
	}
	text, err := r.explainer.Explain(ctx, best, category, w, preferences)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			zap.L().Warn("ranking explanation failed, using local fallback",
				zap.String("category", category),
				zap.Error(err),
			)
		}
		return FallbackExplanation(best, category)
	}
	return strings.TrimSpace(text)
}

// GroupByItem buckets products by their item category, defaulting to
// "other" for untagged results.
func GroupByItem(products []model.Product) map[string][]model.Product {
	grouped := make(map[string][]model.Product)
	for _, p := range products {
		key := strings.TrimSpace(p.Item)
		if key == "" {
			key = "other"
		}
		grouped[key] = append(grouped[key], p)
	}
	return grouped
}

// Extract is the requirement-extractor output consumed for ranking. Any
// field may be empty.
type Extract struct {
	Budget      string   `json:"budget"`
	Deadline    string   `json:"deadline"`
	Item        string   `json:"item"`
	Constraints []string `json:"constraints"`
	Styles      []string `json:"style"`
	Colors      []string `json:"colors"`
}

// Defaults applied when the extractor leaves budget/deadline unusable.
const (
	defaultBudget       = 400.0
	defaultDeliveryDays = 5.0
)

// RankProducts ranks canonical search results using extractor output.
// The persona argument may be empty; when the persona collaborator is
// unavailable, callers typically derive one from the extract's style and
// color lists.
func (r *Ranker) RankProducts(ctx context.Context, ex Extract, products []model.Product, persona model.Persona) Output {
	budget := defaultBudget
	if v, ok := query.ParseBudget(ex.Budget); ok {
		budget = v
	}
	maxDays := defaultDeliveryDays
	if d, ok := query.ParseDeadlineDays(ex.Deadline); ok {
		maxDays = float64(d)
	}

	style := ""
	if len(ex.Styles) > 0 {
		style = ex.Styles[0]
	}
	color := ""
	if len(ex.Colors) > 0 {
		color = ex.Colors[0]
	}

	grouped := make(map[string][]Candidate)
	for category, ps := range GroupByItem(products) {
		candidates := make([]Candidate, len(ps))
		for i, p := range ps {
			candidates[i] = Candidate{
				Name:         p.Name,
				Retailer:     p.Retailer,
				Price:        p.Price,
				DeliveryDays: query.DeliveryDays(p.DeliveryEstimate),
				Color:        color,
				Style:        style,
			}
		}
		grouped[category] = candidates
	}

	w := WeightsFromPreferences(ex.Constraints)
	return r.Rank(ctx, grouped, w, budget, maxDays, persona, ex.Constraints)
}
