package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/llm"
)

const (
	recognizedConfidence   = 0.9
	unrecognizedConfidence = 0.3
)

// Gemini asks the generative model to pick one of Categories.
type Gemini struct {
	gen llm.Generator
}

// NewGemini creates a Gemini categorizer on top of gen.
func NewGemini(gen llm.Generator) *Gemini {
	return &Gemini{gen: gen}
}

// Categorize implements Categorizer. An answer outside Categories maps to
// DefaultCategory with low confidence.
func (g *Gemini) Categorize(ctx context.Context, description string, amount decimal.Decimal) (domain.CategoryLabel, error) {
	answer, err := g.gen.Generate(ctx, buildCategorizePrompt(description, amount))
	if err != nil {
		return domain.CategoryLabel{}, fmt.Errorf("Gemini.Categorize: %w", err)
	}

	if c, ok := matchCategory(answer); ok {
		return domain.CategoryLabel{Category: c, Confidence: recognizedConfidence}, nil
	}
	return domain.CategoryLabel{Category: DefaultCategory, Confidence: unrecognizedConfidence}, nil
}

func buildCategorizePrompt(description string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("As a financial assistant, categorize the following transaction into one of these categories:\n")
	for _, c := range Categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Transaction: %s\n", description)
	fmt.Fprintf(&b, "Amount: $%s\n\n", amount.StringFixed(2))
	b.WriteString("Return only the category name without any additional text.\n")
	return b.String()
}
