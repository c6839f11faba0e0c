package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/clock"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGenerator(WithClock(clock.NewFixed(now)), WithIDGenerator(idgen.NewSequence("ins")))
}

func tx(typ domain.TransactionType, amount string) domain.Transaction {
	return domain.Transaction{Type: typ, Category: "General", Amount: decimal.RequireFromString(amount), Date: now}
}

func subscription(id, amount string) domain.Transaction {
	return domain.Transaction{
		ID:                 id,
		Type:               domain.TransactionTypeExpense,
		Category:           "Entertainment",
		Amount:             decimal.RequireFromString(amount),
		Date:               now,
		IsRecurring:        true,
		RecurringFrequency: domain.PeriodMonthly,
	}
}

func spentBudget(category, limit, spent string) domain.Budget {
	return domain.Budget{
		ID:       "b-" + category,
		Category: category,
		Limit:    decimal.RequireFromString(limit),
		Spent:    decimal.NewNullDecimal(decimal.RequireFromString(spent)),
	}
}

func TestGenerate_LowSavingsRate(t *testing.T) {
	g := newTestGenerator()
	got := g.Generate("u1", []domain.Transaction{
		tx(domain.TransactionTypeIncome, "1000"),
		tx(domain.TransactionTypeExpense, "950"),
	}, nil, nil)

	require.Len(t, got, 1)
	in := got[0]
	assert.Equal(t, TitleLowSavings, in.Title)
	assert.Equal(t, domain.SeverityMedium, in.Severity)
	assert.Equal(t, domain.InsightTypeSaving, in.Type)
	assert.Equal(t, "u1", in.UserID)
	assert.Equal(t, "ins-1", in.ID)
	assert.Equal(t, now, in.CreatedAt)
	assert.False(t, in.IsRead)
	assert.Contains(t, in.Description, "reducing non-essential expenses")
}

func TestGenerate_SavingsRateBands(t *testing.T) {
	tests := []struct {
		name      string
		income    string
		expense   string
		wantTitle string
	}{
		{"high", "1000", "600", TitleHighSavings},
		{"exactly 30%", "1000", "700", ""},
		{"exactly 10%", "1000", "900", ""},
		{"overspent", "1000", "1500", TitleLowSavings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestGenerator().Generate("u1", []domain.Transaction{
				tx(domain.TransactionTypeIncome, tt.income),
				tx(domain.TransactionTypeExpense, tt.expense),
			}, nil, nil)
			if tt.wantTitle == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantTitle, got[0].Title)
		})
	}
}

func TestGenerate_HighSavingsIsInvestment(t *testing.T) {
	got := newTestGenerator().Generate("u1", []domain.Transaction{
		tx(domain.TransactionTypeIncome, "1000"),
	}, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightTypeInvestment, got[0].Type)
	assert.Equal(t, domain.SeverityLow, got[0].Severity)
}

func TestGenerate_ZeroIncomeSkipsSavingsRate(t *testing.T) {
	got := newTestGenerator().Generate("u1", []domain.Transaction{
		tx(domain.TransactionTypeExpense, "5000"),
	}, nil, nil)
	assert.Empty(t, got)
}

func TestGenerate_Subscriptions(t *testing.T) {
	subs := []domain.Transaction{
		subscription("s1", "9.99"),
		subscription("s2", "12.00"),
		subscription("s3", "15.49"),
	}

	assert.Empty(t, newTestGenerator().Generate("u1", subs, nil, nil), "three subscriptions are fine")

	notSub := subscription("big", "50")
	weekly := subscription("w", "5")
	weekly.RecurringFrequency = domain.PeriodWeekly
	subs = append(subs, notSub, weekly, subscription("s4", "8.47"))

	got := newTestGenerator().Generate("u1", subs, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, TitleSubscriptions, got[0].Title)
	assert.Equal(t, domain.SeverityLow, got[0].Severity)
	assert.Equal(t, "You have 4 active subscriptions totaling $45.95 monthly. Consider reviewing if you need all of them.", got[0].Description)
}

func TestGenerate_BudgetOverrun(t *testing.T) {
	got := newTestGenerator().Generate("u1", nil, []domain.Budget{spentBudget("Food", "300", "320")}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Equal(t, domain.InsightTypeSpending, got[0].Type)
	assert.Equal(t, "Budget exceeded: Food", got[0].Title)
	assert.Contains(t, got[0].Description, "$20.00")
}

func TestGenerate_BudgetNearLimit(t *testing.T) {
	tests := []struct {
		spent    string
		wantSev  domain.Severity
		wantDesc string
	}{
		{"280", domain.SeverityMedium, "You have $20.00 left."},
		{"300", domain.SeverityMedium, "You have $0.00 left."},
		{"270", "", ""},
		{"0", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spent, func(t *testing.T) {
			got := newTestGenerator().Generate("u1", nil, []domain.Budget{spentBudget("Food", "300", tt.spent)}, nil)
			if tt.wantSev == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantSev, got[0].Severity)
			assert.Contains(t, got[0].Description, tt.wantDesc)
		})
	}
}

func TestGenerate_RecomputesMissingSpent(t *testing.T) {
	b := domain.Budget{
		ID:        "b1",
		Category:  "Food",
		Limit:     decimal.NewFromInt(100),
		StartDate: now.AddDate(0, 0, -9),
		EndDate:   now.AddDate(0, 0, 20),
	}
	food := func(amount string, date time.Time) domain.Transaction {
		return domain.Transaction{Type: domain.TransactionTypeExpense, Category: "Food", Amount: decimal.RequireFromString(amount), Date: date}
	}
	txs := []domain.Transaction{
		food("80", now),
		food("40", now.AddDate(0, 0, 1)),
		food("500", now.AddDate(0, -2, 0)), // outside window
	}

	assert.True(t, SpentFor(b, txs).Equal(decimal.NewFromInt(120)))

	got := newTestGenerator().Generate("u1", txs, []domain.Budget{b}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Contains(t, got[0].Description, "$20.00")
}

func TestGenerate_Fraud(t *testing.T) {
	flagged := domain.Transaction{
		ID:          "tx-42",
		Type:        domain.TransactionTypeExpense,
		Description: "Unknown Store",
		Amount:      decimal.RequireFromString("199.99"),
	}
	signal := &FraudSignal{
		Transaction: flagged,
		Assessment:  domain.FraudAssessment{IsFraudulent: true, Confidence: 0.8, Reasoning: "unusual amount"},
	}

	got := newTestGenerator().Generate("u1", nil, nil, signal)
	require.Len(t, got, 1)
	in := got[0]
	assert.Equal(t, TitleFraud, in.Title)
	assert.Equal(t, domain.SeverityHigh, in.Severity)
	assert.Equal(t, domain.InsightTypeFraud, in.Type)
	assert.Equal(t, []string{"tx-42"}, in.RelatedTransactionIDs)
	assert.Equal(t, `We detected a potentially fraudulent transaction: "Unknown Store" for $199.99. unusual amount`, in.Description)
}

func TestGenerate_FraudThreshold(t *testing.T) {
	tests := []struct {
		name       string
		assessment domain.FraudAssessment
	}{
		{"not fraudulent", domain.FraudAssessment{IsFraudulent: false, Confidence: 0.99}},
		{"confidence at threshold", domain.FraudAssessment{IsFraudulent: true, Confidence: 0.6}},
		{"low confidence", domain.FraudAssessment{IsFraudulent: true, Confidence: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestGenerator().Generate("u1", nil, nil, &FraudSignal{Assessment: tt.assessment})
			assert.Empty(t, got)
		})
	}
}

func TestGenerate_Order(t *testing.T) {
	txs := []domain.Transaction{
		tx(domain.TransactionTypeIncome, "1000"),
		tx(domain.TransactionTypeExpense, "950"),
		subscription("s1", "1"),
		subscription("s2", "1"),
		subscription("s3", "1"),
		subscription("s4", "1"),
	}
	budgets := []domain.Budget{
		spentBudget("Food", "100", "150"),
		spentBudget("Fun", "100", "10"),
		spentBudget("Rent", "100", "95"),
	}
	signal := &FraudSignal{
		Transaction: domain.Transaction{ID: "tx-1"},
		Assessment:  domain.FraudAssessment{IsFraudulent: true, Confidence: 0.9},
	}

	got := newTestGenerator().Generate("u1", txs, budgets, signal)

	titles := make([]string, 0, len(got))
	ids := make([]string, 0, len(got))
	for _, in := range got {
		titles = append(titles, in.Title)
		ids = append(ids, in.ID)
	}
	assert.Equal(t, []string{
		TitleLowSavings,
		TitleSubscriptions,
		"Budget exceeded: Food",
		"Approaching budget limit: Rent",
		TitleFraud,
	}, titles)
	assert.Equal(t, []string{"ins-1", "ins-2", "ins-3", "ins-4", "ins-5"}, ids)
}

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator()
	got := g.Generate("u1", []domain.Transaction{tx(domain.TransactionTypeIncome, "10")}, nil, nil)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}
