package bills

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/llm"
)

// MockGenerator is a mock implementation of llm.Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, attachments ...llm.Attachment) (string, error)
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, attachments ...llm.Attachment) (string, error) {
	return m.GenerateFunc(ctx, prompt, attachments...)
}

var now = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func recurring(desc, amount string, date time.Time, freq domain.Period) domain.Transaction {
	return domain.Transaction{
		Type:               domain.TransactionTypeExpense,
		Description:        desc,
		Category:           "Bills",
		Amount:             decimal.RequireFromString(amount),
		Date:               date,
		IsRecurring:        true,
		RecurringFrequency: freq,
	}
}

func TestRecurring_Predict(t *testing.T) {
	txs := []domain.Transaction{
		recurring("Netflix", "15.49", time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), domain.PeriodMonthly),
		recurring("netflix", "17.99", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), domain.PeriodMonthly),
		recurring("Gym", "30", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), domain.PeriodWeekly),
		recurring("Insurance", "480", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), domain.PeriodYearly),
		{Type: domain.TransactionTypeExpense, Description: "One-off", Amount: decimal.NewFromInt(5), Date: now},
		{Type: domain.TransactionTypeIncome, Description: "Salary", Amount: decimal.NewFromInt(3000), Date: now, IsRecurring: true, RecurringFrequency: domain.PeriodMonthly},
	}

	got, err := NewRecurring(idgen.NewSequence("bill")).Predict(context.Background(), "u1", txs, now)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Gym", got[0].Name)
	assert.Equal(t, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), got[0].DueDate)

	assert.Equal(t, "netflix", got[1].Name)
	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), got[1].DueDate)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("17.99")))

	assert.Equal(t, "Insurance", got[2].Name)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got[2].DueDate)

	for _, b := range got {
		assert.Equal(t, "u1", b.UserID)
		assert.True(t, b.IsRecurring)
		assert.True(t, b.DueDate.After(now))
		assert.NotEmpty(t, b.ID)
	}
}

func TestNextDue(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		freq domain.Period
		want time.Time
	}{
		{"zero date daily", time.Time{}, domain.PeriodDaily, now.AddDate(0, 0, 1)},
		{"zero date monthly", time.Time{}, domain.PeriodMonthly, now.AddDate(0, 1, 0)},
		{"old daily", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), domain.PeriodDaily, now.AddDate(0, 0, 1)},
		{"old weekly keeps weekday", time.Date(2000, 1, 3, 9, 0, 0, 0, time.UTC), domain.PeriodWeekly, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC)},
		{"recent monthly", now.AddDate(0, 0, -5), domain.PeriodMonthly, now.AddDate(0, 1, -5)},
		{"future date", now.AddDate(0, 0, 3), domain.PeriodWeekly, now.AddDate(0, 0, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextDue(tt.last, tt.freq, now))
		})
	}
}

func TestRecurring_PredictUndatedTransaction(t *testing.T) {
	tx := recurring("Gym", "30", time.Time{}, domain.PeriodDaily)
	bills, err := NewRecurring(idgen.NewSequence("bill")).Predict(context.Background(), "u1", []domain.Transaction{tx}, now)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, now.AddDate(0, 0, 1), bills[0].DueDate)
}

func TestGemini_Predict(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, prompt string, _ ...llm.Attachment) (string, error) {
			assert.Contains(t, prompt, `"description":"Spotify"`)
			return `[
				{"name": "Spotify", "amount": 9.99, "category": "Entertainment", "dueDate": "2024-07-01", "isRecurring": true, "recurringFrequency": "Monthly"},
				{"name": "Water", "amount": -40, "category": "Utilities", "dueDate": "2024-05-20", "isRecurring": true, "recurringFrequency": "monthly"},
				{"name": "Broken", "amount": 1, "dueDate": "next week"}
			]`, nil
		},
	}
	txs := []domain.Transaction{recurring("Spotify", "9.99", now.AddDate(0, -1, 0), domain.PeriodMonthly)}

	got, err := NewGemini(gen, idgen.NewSequence("bill")).Predict(context.Background(), "u1", txs, now)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Water", got[0].Name)
	assert.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), got[0].DueDate)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(40)))

	assert.Equal(t, "Spotify", got[1].Name)
	assert.Equal(t, domain.PeriodMonthly, got[1].RecurringFrequency)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("9.99")))
}
