// Package bills predicts upcoming recurring payments from transaction history.
package bills

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
)

// Predictor returns the bills expected after now.
type Predictor interface {
	Predict(ctx context.Context, userID string, transactions []domain.Transaction, now time.Time) ([]domain.Bill, error)
}

// Recurring derives bills from transactions flagged as recurring: the most
// recent occurrence of each payee is rolled forward by its frequency until
// it falls after now.
type Recurring struct {
	ids idgen.Generator
}

// NewRecurring creates a rule-based predictor.
func NewRecurring(ids idgen.Generator) *Recurring {
	return &Recurring{ids: ids}
}

// Predict implements Predictor. Bills are ordered by due date, then name.
func (r *Recurring) Predict(_ context.Context, userID string, transactions []domain.Transaction, now time.Time) ([]domain.Bill, error) {
	latest := make(map[string]domain.Transaction)
	for _, tx := range transactions {
		if !tx.IsExpense() || !tx.IsRecurring || tx.RecurringFrequency == "" || !tx.RecurringFrequency.Valid() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(tx.Description))
		if prev, ok := latest[key]; !ok || tx.Date.After(prev.Date) {
			latest[key] = tx
		}
	}

	out := make([]domain.Bill, 0, len(latest))
	for _, tx := range latest {
		out = append(out, domain.Bill{
			ID:                 r.ids.NewID(),
			UserID:             userID,
			Name:               tx.Description,
			Amount:             tx.Amount,
			DueDate:            nextDue(tx.Date, tx.RecurringFrequency, now),
			Category:           tx.Category,
			IsRecurring:        true,
			RecurringFrequency: tx.RecurringFrequency,
		})
	}
	sortBills(out)
	return out, nil
}

// nextDue returns the first occurrence after now. A transaction without a
// date is treated as occurring now; daily and weekly schedules skip whole
// elapsed periods before stepping.
func nextDue(last time.Time, freq domain.Period, now time.Time) time.Time {
	if last.IsZero() {
		last = now
	}
	if days := fixedDays(freq); days > 0 && now.After(last) {
		if skip := int(now.Sub(last)/(24*time.Hour))/days - 1; skip > 0 {
			last = last.AddDate(0, 0, skip*days)
		}
	}
	due := freq.Next(last)
	for !due.After(now) {
		due = freq.Next(due)
	}
	return due
}

func fixedDays(p domain.Period) int {
	switch p {
	case domain.PeriodDaily:
		return 1
	case domain.PeriodWeekly:
		return 7
	}
	return 0
}

func sortBills(bills []domain.Bill) {
	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].DueDate.Equal(bills[j].DueDate) {
			return bills[i].DueDate.Before(bills[j].DueDate)
		}
		return bills[i].Name < bills[j].Name
	})
}
