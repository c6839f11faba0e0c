package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a spending limit for one category over a period.
type Budget struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`

	// Spent is supplied by the caller. When it is not valid the insight
	// generator derives it from the expense transactions in the budget window.
	Spent decimal.NullDecimal `json:"spent"`

	Period    Period    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Validate rejects a non-positive limit and an inverted date window.
func (b Budget) Validate() error {
	if !b.Limit.IsPositive() {
		return &InvalidInputError{Field: "limit", Reason: "must be positive", ID: b.ID}
	}
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.StartDate.After(b.EndDate) {
		return &InvalidInputError{Field: "start_date", Reason: "must not be after end_date", ID: b.ID}
	}
	if b.Spent.Valid && b.Spent.Decimal.IsNegative() {
		return &InvalidInputError{Field: "spent", Reason: "must not be negative", ID: b.ID}
	}
	return nil
}

// Covers reports whether t falls inside the budget window. Zero bounds are open.
func (b Budget) Covers(t time.Time) bool {
	if !b.StartDate.IsZero() && t.Before(b.StartDate) {
		return false
	}
	if !b.EndDate.IsZero() && t.After(b.EndDate) {
		return false
	}
	return true
}

// BudgetRecommendation proposes a new limit for an existing budget.
type BudgetRecommendation struct {
	BudgetID          string          `json:"budget_id"`
	Category          string          `json:"category"`
	RecommendedAmount decimal.Decimal `json:"recommended_amount"`
	CurrentAmount     decimal.Decimal `json:"current_amount"`
	Period            Period          `json:"period"`
	Reasoning         string          `json:"reasoning"`
}
