// Package recommend proposes budget-limit adjustments from spending history.
package recommend

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

var (
	underThreshold = decimal.RequireFromString("0.7")
	overThreshold  = decimal.RequireFromString("1.1")
	underBuffer    = decimal.RequireFromString("1.2")
	overBuffer     = decimal.RequireFromString("1.1")
)

// Recommend compares aggregated expense per budget category against each
// budget's limit. Spend below 70% of the limit yields a decrease to 120% of
// spend; spend above 110% yields an increase to 110% of spend. Anything in
// between is on track and produces nothing.
//
// Categories match exactly; callers normalize casing upstream. Budgets are
// validated before any output is produced.
func Recommend(transactions []domain.Transaction, budgets []domain.Budget) ([]domain.BudgetRecommendation, error) {
	for _, b := range budgets {
		if !b.Limit.IsPositive() {
			return nil, &domain.InvalidInputError{Field: "limit", Reason: "must be positive", ID: b.ID}
		}
	}

	spend := SpendByCategory(transactions)
	recs := make([]domain.BudgetRecommendation, 0, len(budgets))

	for _, b := range budgets {
		if rec, ok := recommendFor(b, spend[b.Category]); ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// SpendByCategory sums expense amounts keyed by exact category label.
func SpendByCategory(transactions []domain.Transaction) map[string]decimal.Decimal {
	spend := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		if !tx.IsExpense() {
			continue
		}
		spend[tx.Category] = spend[tx.Category].Add(tx.Amount)
	}
	return spend
}

func recommendFor(b domain.Budget, spent decimal.Decimal) (domain.BudgetRecommendation, bool) {
	rec := domain.BudgetRecommendation{
		BudgetID:      b.ID,
		Category:      b.Category,
		CurrentAmount: b.Limit,
		Period:        b.Period,
	}

	switch {
	case spent.LessThan(b.Limit.Mul(underThreshold)):
		rec.RecommendedAmount = roundWhole(spent.Mul(underBuffer), b.Limit, false)
		rec.Reasoning = fmt.Sprintf(
			"Your spending in %s is consistently under budget. You could reduce this budget by %s.",
			b.Category, b.Limit.Sub(rec.RecommendedAmount).StringFixed(2))
	case spent.GreaterThan(b.Limit.Mul(overThreshold)):
		rec.RecommendedAmount = roundWhole(spent.Mul(overBuffer), b.Limit, true)
		rec.Reasoning = fmt.Sprintf(
			"Your spending in %s consistently exceeds your budget. Consider increasing it by %s.",
			b.Category, rec.RecommendedAmount.Sub(b.Limit).StringFixed(2))
	default:
		return domain.BudgetRecommendation{}, false
	}
	return rec, true
}

// roundWhole rounds v to the nearest whole unit. When that would cross the
// limit (possible only for limits of a few units or less) it rounds toward
// the limit instead, so decreases stay <= limit and increases stay >= limit.
func roundWhole(v, limit decimal.Decimal, increase bool) decimal.Decimal {
	r := v.Round(0)
	switch {
	case increase && r.LessThan(limit):
		return v.Ceil()
	case !increase && r.GreaterThan(limit):
		return v.Floor()
	}
	return r
}
