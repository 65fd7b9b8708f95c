package rank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stylecart/shop-cli/pkg/anthropic"
)

// Explainer generates a natural-language explanation for the top-ranked
// item in a category. Implementations may fail; the ranker always has a
// deterministic fallback.
type Explainer interface {
	Explain(ctx context.Context, best Scored, category string, w Weights, preferences []string) (string, error)
}

const (
	explainMaxTokens = 150
	explainTimeout   = 20 * time.Second
)

// AnthropicExplainer generates explanations via the Anthropic Messages
// API with a bounded-token, bounded-time request.
type AnthropicExplainer struct {
	client anthropic.Client
	model  string
}

// NewAnthropicExplainer creates an AnthropicExplainer.
func NewAnthropicExplainer(client anthropic.Client, model string) *AnthropicExplainer {
	return &AnthropicExplainer{client: client, model: model}
}

// Explain implements Explainer.
func (e *AnthropicExplainer) Explain(ctx context.Context, best Scored, category string, w Weights, preferences []string) (string, error) {
	if e.client == nil {
		return "", eris.New("explain: no client configured")
	}

	ctx, cancel := context.WithTimeout(ctx, explainTimeout)
	defer cancel()

	temp := 0.7
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   explainMaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: explainPrompt(best, category, w, preferences)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "explain: generate")
	}
	return strings.TrimSpace(resp.Text), nil
}

func explainPrompt(best Scored, category string, w Weights, preferences []string) string {
	p := best.Product
	prefs := strings.Join(preferences, ", ")
	if prefs == "" {
		prefs = "balanced"
	}
	return fmt.Sprintf(`You are an expert shopping assistant. Write a short, natural, and convincing English explanation (3-4 sentences) of why this product is ranked #1 in the %q category.

Product: %s from %s
Price: $%.2f
Delivery: %.0f days
Style match: %.3f

Final score: %.3f

Score breakdown:
- Price contribution: %.3f (weight %.0f%%)
- Delivery contribution: %.3f (weight %.0f%%)
- Style contribution: %.3f (weight %.0f%%)

User preferences: %s

Be honest, focus on the strongest factor, use friendly tone. Return only the explanation.`,
		category, p.Name, p.Retailer, p.Price, p.DeliveryDays, p.PreferenceMatch,
		best.Score,
		best.Decomposition.PriceContrib, w.Price*100,
		best.Decomposition.DeliveryContrib, w.Delivery*100,
		best.Decomposition.StyleContrib, w.Style*100,
		prefs,
	)
}

// FallbackExplanation builds the deterministic explanation used whenever
// the LLM collaborator is unavailable or fails.
func FallbackExplanation(best Scored, category string) string {
	p := best.Product
	d := best.Decomposition
	factor, _ := strongestContribution(d)

	var parts []string
	switch factor {
	case "price":
		parts = append(parts, fmt.Sprintf("This %s offers excellent value at $%.2f.", category, p.Price))
		if d.PriceContrib > 0.3 {
			parts = append(parts, "The competitive price significantly boosted its ranking.")
		}
	case "delivery":
		plural := "s"
		if p.DeliveryDays == 1 {
			plural = ""
		}
		parts = append(parts, fmt.Sprintf("Fast delivery (%.0f day%s) makes this a top choice.", p.DeliveryDays, plural))
		if d.DeliveryContrib > 0.2 {
			parts = append(parts, "Quick shipping was a key factor in its high ranking.")
		}
	default:
		parts = append(parts, fmt.Sprintf("This product closely matches your preferences (%.0f%% match).", p.PreferenceMatch*100))
		if d.StyleContrib > 0.3 {
			parts = append(parts, "Strong style alignment contributed most to its #1 ranking.")
		}
	}
	parts = append(parts, fmt.Sprintf("Final score: %.3f (weighted across all criteria).", best.Score))
	return strings.Join(parts, " ")
}
