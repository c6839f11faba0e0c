package categorize

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

const (
	keywordConfidence   = 0.9
	unmatchedCategory   = "Miscellaneous"
	unmatchedConfidence = 0.6
)

type keywordRule struct {
	category string
	words    []string
}

// Rules are checked in order; the first matching word wins, so "gas" is
// Transport rather than Utilities.
var keywordRules = []keywordRule{
	{"Food", []string{"grocery", "restaurant", "food", "meal", "dinner", "lunch", "breakfast", "cafe", "coffee"}},
	{"Transport", []string{"uber", "lyft", "taxi", "bus", "train", "subway", "gas", "fuel", "parking"}},
	{"Entertainment", []string{"movie", "netflix", "spotify", "hulu", "disney", "cinema", "theater", "concert"}},
	{"Shopping", []string{"amazon", "walmart", "target", "store", "mall", "clothes", "shoes", "purchase"}},
	{"Utilities", []string{"electric", "water", "gas", "internet", "phone", "bill", "utility"}},
	{"Housing", []string{"rent", "mortgage", "apartment", "house", "insurance"}},
	{"Health", []string{"doctor", "hospital", "medical", "pharmacy", "medicine", "health", "dental"}},
	{"Education", []string{"school", "college", "university", "tuition", "book", "course", "class"}},
	{"Income", []string{"salary", "paycheck", "deposit", "refund", "reimbursement", "payment"}},
}

// Keyword categorizes by substring match against a fixed keyword table.
// It is deterministic and never fails.
type Keyword struct{}

// NewKeyword creates a keyword categorizer.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Categorize implements Categorizer.
func (k *Keyword) Categorize(_ context.Context, description string, _ decimal.Decimal) (domain.CategoryLabel, error) {
	desc := strings.ToLower(description)
	for _, rule := range keywordRules {
		for _, w := range rule.words {
			if strings.Contains(desc, w) {
				return domain.CategoryLabel{Category: rule.category, Confidence: keywordConfidence}, nil
			}
		}
	}
	return domain.CategoryLabel{Category: unmatchedCategory, Confidence: unmatchedConfidence}, nil
}
