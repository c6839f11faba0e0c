package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the signed role of a transaction.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Period is the recurrence cadence of a budget, bill or recurring transaction.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Next returns t advanced by one period. Unknown periods return t unchanged.
func (p Period) Next(t time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return t.AddDate(0, 0, 1)
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	case PeriodYearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

// Transaction is one income or expense entry owned by a user.
// The recommendation and insight engines only read transactions.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // always non-negative; Type carries the sign
	Date        time.Time       `json:"date"`

	IsRecurring        bool   `json:"is_recurring"`
	RecurringFrequency Period `json:"recurring_frequency,omitempty"`

	AttachmentURI string `json:"attachment_uri,omitempty"`
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome reports whether the transaction is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// Validate checks the fields a caller must supply before persisting.
func (t Transaction) Validate() error {
	if t.UserID == "" {
		return &InvalidInputError{Field: "user_id", Reason: "is required"}
	}
	if t.Type != TransactionTypeIncome && t.Type != TransactionTypeExpense {
		return &InvalidInputError{Field: "type", Reason: "must be income or expense"}
	}
	if t.Amount.IsNegative() {
		return &InvalidInputError{Field: "amount", Reason: "must not be negative"}
	}
	if t.RecurringFrequency != "" && !t.RecurringFrequency.Valid() {
		return &InvalidInputError{Field: "recurring_frequency", Reason: "must be daily, weekly, monthly or yearly"}
	}
	return nil
}
