package fraud

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

const (
	reasonUnknownMerchant = "Unusually large amount at an unknown merchant"
	reasonDuplicate       = "Duplicate transaction within 24 hours"
	reasonClean           = "No anomalies detected"

	duplicateWindow = 24 * time.Hour
)

var largeAmount = decimal.NewFromInt(1000)

// Heuristic flags large payments to unknown merchants and same-day
// duplicates. It never fails.
type Heuristic struct{}

// NewHeuristic creates a rule-based assessor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Assess implements Assessor.
func (h *Heuristic) Assess(_ context.Context, tx domain.Transaction, history []domain.Transaction) (domain.FraudAssessment, error) {
	if tx.Amount.GreaterThan(largeAmount) && strings.Contains(strings.ToLower(tx.Description), "unknown") {
		return domain.FraudAssessment{IsFraudulent: true, Confidence: 0.85, Reasoning: reasonUnknownMerchant}, nil
	}
	if isDuplicate(tx, history) {
		return domain.FraudAssessment{IsFraudulent: true, Confidence: 0.9, Reasoning: reasonDuplicate}, nil
	}
	return domain.FraudAssessment{IsFraudulent: false, Confidence: 0.95, Reasoning: reasonClean}, nil
}

func isDuplicate(tx domain.Transaction, history []domain.Transaction) bool {
	for _, prev := range history {
		if prev.ID == tx.ID || !prev.Amount.Equal(tx.Amount) || prev.Description != tx.Description {
			continue
		}
		gap := tx.Date.Sub(prev.Date)
		if gap < 0 {
			gap = -gap
		}
		if gap < duplicateWindow {
			return true
		}
	}
	return false
}
