// Package categorize assigns category labels to transaction descriptions.
//
// Two strategies are provided: a local keyword table and a Gemini-backed
// classifier. WithFallback wraps either so callers always get a label.
package categorize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// DefaultCategory is returned when a categorizer fails.
const DefaultCategory = "Other"

// Categories is the label set offered to the remote model.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Housing",
	"Utilities",
	"Healthcare",
	"Personal Care",
	"Education",
	"Travel",
	"Income",
	"Investments",
	DefaultCategory,
}

// Categorizer labels a transaction from its description and amount.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amount decimal.Decimal) (domain.CategoryLabel, error)
}

// Fallback never fails: errors from the wrapped categorizer are logged and
// replaced by DefaultCategory with zero confidence.
type Fallback struct {
	next Categorizer
	log  zerolog.Logger
}

// WithFallback wraps next.
func WithFallback(next Categorizer, log zerolog.Logger) *Fallback {
	return &Fallback{next: next, log: log}
}

// Categorize implements Categorizer.
func (f *Fallback) Categorize(ctx context.Context, description string, amount decimal.Decimal) (domain.CategoryLabel, error) {
	label, err := f.next.Categorize(ctx, description, amount)
	if err != nil {
		f.log.Warn().Err(err).Str("description", description).Msg("categorization failed, using default category")
		return domain.CategoryLabel{Category: DefaultCategory, Confidence: 0}, nil
	}
	return label, nil
}

// matchCategory returns the canonical label for s, ignoring case and
// surrounding punctuation.
func matchCategory(s string) (string, bool) {
	s = strings.Trim(strings.TrimSpace(s), `."'`+"`")
	for _, c := range Categories {
		if strings.EqualFold(s, c) {
			return c, true
		}
	}
	return "", false
}
