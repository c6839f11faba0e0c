// Package store defines persistence for transactions, budgets and insights,
// keyed by user.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// ErrNotFound is returned when a record does not exist for the given user.
var ErrNotFound = errors.New("not found")

// Repository is implemented by every storage backend.
//
// List methods return transactions by date then ID, budgets by category then
// ID, and insights newest first. Save methods upsert by user ID and record
// ID, so two users may hold records with the same ID independently.
type Repository interface {
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (domain.Transaction, error)
	SaveTransaction(ctx context.Context, tx domain.Transaction) error

	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	GetBudget(ctx context.Context, userID, budgetID string) (domain.Budget, error)
	SaveBudget(ctx context.Context, b domain.Budget) error

	ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error)
	SaveInsight(ctx context.Context, in domain.FinancialInsight) error
	MarkInsightRead(ctx context.Context, userID, insightID string) error
	DeleteInsight(ctx context.Context, userID, insightID string) error

	Close() error
}

// SortTransactions orders transactions by date, then ID.
func SortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}

// SortBudgets orders budgets by category, then ID.
func SortBudgets(budgets []domain.Budget) {
	sort.SliceStable(budgets, func(i, j int) bool {
		if budgets[i].Category != budgets[j].Category {
			return budgets[i].Category < budgets[j].Category
		}
		return budgets[i].ID < budgets[j].ID
	})
}

// SortInsights orders insights newest first, then by ID.
func SortInsights(insights []domain.FinancialInsight) {
	sort.SliceStable(insights, func(i, j int) bool {
		if !insights[i].CreatedAt.Equal(insights[j].CreatedAt) {
			return insights[i].CreatedAt.After(insights[j].CreatedAt)
		}
		return insights[i].ID < insights[j].ID
	})
}
