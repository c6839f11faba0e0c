// Package fraud assesses whether a transaction looks anomalous against the
// user's history.
package fraud

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// FallbackReasoning is the reasoning attached when assessment fails.
const FallbackReasoning = "Error analyzing transaction"

// Assessor produces a fraud verdict for tx given the user's prior transactions.
type Assessor interface {
	Assess(ctx context.Context, tx domain.Transaction, history []domain.Transaction) (domain.FraudAssessment, error)
}

// Fallback never fails: errors from the wrapped assessor become a
// non-fraudulent verdict with zero confidence.
type Fallback struct {
	next Assessor
	log  zerolog.Logger
}

// WithFallback wraps next.
func WithFallback(next Assessor, log zerolog.Logger) *Fallback {
	return &Fallback{next: next, log: log}
}

// Assess implements Assessor.
func (f *Fallback) Assess(ctx context.Context, tx domain.Transaction, history []domain.Transaction) (domain.FraudAssessment, error) {
	a, err := f.next.Assess(ctx, tx, history)
	if err != nil {
		f.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("fraud assessment failed, assuming not fraudulent")
		return domain.FraudAssessment{IsFraudulent: false, Confidence: 0, Reasoning: FallbackReasoning}, nil
	}
	return a, nil
}
