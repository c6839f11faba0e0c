// Package storetest holds a conformance suite run against every
// store.Repository backend.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

// RepositorySuite exercises a store.Repository. Embedders set NewRepo; a fresh
// repository is created before each test and closed after it.
type RepositorySuite struct {
	suite.Suite
	NewRepo func() (store.Repository, error)

	repo store.Repository
	ctx  context.Context
}

var base = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

// SetupTest runs before each test
func (s *RepositorySuite) SetupTest() {
	repo, err := s.NewRepo()
	s.Require().NoError(err, "failed to create repository")
	s.repo = repo
	s.ctx = context.Background()
}

// TearDownTest runs after each test
func (s *RepositorySuite) TearDownTest() {
	if s.repo != nil {
		s.NoError(s.repo.Close())
	}
}

func (s *RepositorySuite) TestTransactionsRoundTrip() {
	tx := domain.Transaction{
		ID:                 "tx-2",
		UserID:             "u1",
		Type:               domain.TransactionTypeExpense,
		Category:           "Food & Dining",
		Description:        "Lunch",
		Amount:             decimal.RequireFromString("12.34"),
		Date:               base.Add(time.Hour),
		IsRecurring:        true,
		RecurringFrequency: domain.PeriodMonthly,
		AttachmentURI:      "gs://b/attachments/u1/tx-2",
	}
	earlier := domain.Transaction{
		ID:     "tx-1",
		UserID: "u1",
		Type:   domain.TransactionTypeIncome,
		Amount: decimal.NewFromInt(1000),
		Date:   base,
	}
	other := domain.Transaction{ID: "tx-3", UserID: "u2", Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(1), Date: base}

	for _, t := range []domain.Transaction{tx, earlier, other} {
		s.Require().NoError(s.repo.SaveTransaction(s.ctx, t))
	}

	got, err := s.repo.ListTransactions(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("tx-1", got[0].ID)
	s.Equal("tx-2", got[1].ID)

	g := got[1]
	s.Equal(tx.UserID, g.UserID)
	s.Equal(tx.Type, g.Type)
	s.Equal(tx.Category, g.Category)
	s.Equal(tx.Description, g.Description)
	s.True(tx.Amount.Equal(g.Amount), "amount %s != %s", tx.Amount, g.Amount)
	s.True(tx.Date.Equal(g.Date), "date %s != %s", tx.Date, g.Date)
	s.True(g.IsRecurring)
	s.Equal(domain.PeriodMonthly, g.RecurringFrequency)
	s.Equal(tx.AttachmentURI, g.AttachmentURI)

	one, err := s.repo.GetTransaction(s.ctx, "u1", "tx-2")
	s.Require().NoError(err)
	s.Equal("Lunch", one.Description)

	_, err = s.repo.GetTransaction(s.ctx, "u2", "tx-2")
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *RepositorySuite) TestSaveTransactionUpserts() {
	tx := domain.Transaction{ID: "tx-1", UserID: "u1", Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(5), Date: base}
	s.Require().NoError(s.repo.SaveTransaction(s.ctx, tx))

	tx.Category = "Travel"
	tx.Amount = decimal.NewFromInt(7)
	s.Require().NoError(s.repo.SaveTransaction(s.ctx, tx))

	got, err := s.repo.ListTransactions(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Travel", got[0].Category)
	s.True(got[0].Amount.Equal(decimal.NewFromInt(7)))
}

func (s *RepositorySuite) TestBudgets() {
	withSpent := domain.Budget{
		ID:        "b2",
		UserID:    "u1",
		Category:  "Food",
		Limit:     decimal.RequireFromString("300.50"),
		Spent:     decimal.NewNullDecimal(decimal.RequireFromString("120.25")),
		Period:    domain.PeriodMonthly,
		StartDate: base,
		EndDate:   base.AddDate(0, 1, 0),
	}
	open := domain.Budget{ID: "b1", UserID: "u1", Category: "Travel", Limit: decimal.NewFromInt(50), Period: domain.PeriodYearly}

	s.Require().NoError(s.repo.SaveBudget(s.ctx, open))
	s.Require().NoError(s.repo.SaveBudget(s.ctx, withSpent))

	got, err := s.repo.ListBudgets(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Food", got[0].Category)
	s.Equal("Travel", got[1].Category)

	s.True(got[0].Limit.Equal(withSpent.Limit))
	s.True(got[0].Spent.Valid)
	s.True(got[0].Spent.Decimal.Equal(withSpent.Spent.Decimal))
	s.True(got[0].StartDate.Equal(withSpent.StartDate))
	s.True(got[0].EndDate.Equal(withSpent.EndDate))

	s.False(got[1].Spent.Valid)
	s.True(got[1].StartDate.IsZero())
	s.True(got[1].EndDate.IsZero())

	open.Limit = decimal.NewFromInt(75)
	s.Require().NoError(s.repo.SaveBudget(s.ctx, open))
	b, err := s.repo.GetBudget(s.ctx, "u1", "b1")
	s.Require().NoError(err)
	s.True(b.Limit.Equal(decimal.NewFromInt(75)))

	_, err = s.repo.GetBudget(s.ctx, "u1", "missing")
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)

	empty, err := s.repo.ListBudgets(s.ctx, "nobody")
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *RepositorySuite) TestInsightLifecycle() {
	older := domain.FinancialInsight{
		ID:          "i1",
		UserID:      "u1",
		Type:        domain.InsightTypeSaving,
		Title:       "Low savings rate",
		Description: "save more",
		Severity:    domain.SeverityMedium,
		CreatedAt:   base,
	}
	newer := domain.FinancialInsight{
		ID:                    "i2",
		UserID:                "u1",
		Type:                  domain.InsightTypeFraud,
		Title:                 "Potential Fraudulent Transaction Detected",
		Severity:              domain.SeverityHigh,
		CreatedAt:             base.Add(time.Minute),
		RelatedTransactionIDs: []string{"tx-9"},
	}
	s.Require().NoError(s.repo.SaveInsight(s.ctx, older))
	s.Require().NoError(s.repo.SaveInsight(s.ctx, newer))

	got, err := s.repo.ListInsights(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("i2", got[0].ID)
	s.Equal([]string{"tx-9"}, got[0].RelatedTransactionIDs)
	s.Equal(domain.SeverityHigh, got[0].Severity)
	s.False(got[0].IsRead)
	s.True(got[0].CreatedAt.Equal(newer.CreatedAt))
	s.Empty(got[1].RelatedTransactionIDs)

	s.Require().NoError(s.repo.MarkInsightRead(s.ctx, "u1", "i1"))
	got, err = s.repo.ListInsights(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(got[1].IsRead)

	s.Require().NoError(s.repo.DeleteInsight(s.ctx, "u1", "i2"))
	got, err = s.repo.ListInsights(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("i1", got[0].ID)

	s.True(errors.Is(s.repo.DeleteInsight(s.ctx, "u1", "i2"), store.ErrNotFound))
	s.True(errors.Is(s.repo.MarkInsightRead(s.ctx, "u2", "i1"), store.ErrNotFound))
}

func (s *RepositorySuite) TestSameIDAcrossUsers() {
	s.Require().NoError(s.repo.SaveBudget(s.ctx, domain.Budget{ID: "b1", UserID: "alice", Category: "Food", Limit: decimal.NewFromInt(300)}))
	s.Require().NoError(s.repo.SaveBudget(s.ctx, domain.Budget{ID: "b1", UserID: "mallory", Category: "Food", Limit: decimal.NewFromInt(1)}))

	b, err := s.repo.GetBudget(s.ctx, "alice", "b1")
	s.Require().NoError(err)
	s.True(b.Limit.Equal(decimal.NewFromInt(300)), "alice limit = %s", b.Limit)
	budgets, err := s.repo.ListBudgets(s.ctx, "mallory")
	s.Require().NoError(err)
	s.Require().Len(budgets, 1)
	s.True(budgets[0].Limit.Equal(decimal.NewFromInt(1)))

	for _, user := range []string{"alice", "mallory"} {
		s.Require().NoError(s.repo.SaveTransaction(s.ctx, domain.Transaction{
			ID: "tx-1", UserID: user, Type: domain.TransactionTypeExpense, Description: user, Amount: decimal.NewFromInt(5), Date: base,
		}))
		s.Require().NoError(s.repo.SaveInsight(s.ctx, domain.FinancialInsight{
			ID: "i1", UserID: user, Type: domain.InsightTypeSpending, Title: user, Severity: domain.SeverityLow, CreatedAt: base,
		}))
	}
	tx, err := s.repo.GetTransaction(s.ctx, "alice", "tx-1")
	s.Require().NoError(err)
	s.Equal("alice", tx.Description)

	s.Require().NoError(s.repo.MarkInsightRead(s.ctx, "mallory", "i1"))
	s.Require().NoError(s.repo.DeleteInsight(s.ctx, "mallory", "i1"))
	insights, err := s.repo.ListInsights(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(insights, 1)
	s.Equal("alice", insights[0].Title)
	s.False(insights[0].IsRead)
}
