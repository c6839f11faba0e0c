package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetValidate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	tests := []struct {
		name      string
		budget    Budget
		wantField string
	}{
		{"valid", Budget{ID: "b1", Limit: decimal.NewFromInt(100), StartDate: start, EndDate: end}, ""},
		{"zero limit", Budget{ID: "b1", Limit: decimal.Zero}, "limit"},
		{"negative limit", Budget{ID: "b1", Limit: decimal.NewFromInt(-5)}, "limit"},
		{"inverted window", Budget{ID: "b1", Limit: decimal.NewFromInt(1), StartDate: end, EndDate: start}, "start_date"},
		{"negative spent", Budget{ID: "b1", Limit: decimal.NewFromInt(1), Spent: decimal.NewNullDecimal(decimal.NewFromInt(-1))}, "spent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.budget.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr), "want InvalidInputError, got %v", err)
			assert.Equal(t, tt.wantField, inputErr.Field)
			assert.Equal(t, "b1", inputErr.ID)
		})
	}
}

func TestBudgetCovers(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	b := Budget{StartDate: start, EndDate: end}

	assert.True(t, b.Covers(start))
	assert.True(t, b.Covers(end))
	assert.False(t, b.Covers(start.Add(-time.Second)))
	assert.False(t, b.Covers(end.Add(time.Second)))
	assert.True(t, Budget{}.Covers(time.Time{}), "open window covers everything")
}

func TestTransactionValidate(t *testing.T) {
	ok := Transaction{UserID: "u1", Type: TransactionTypeExpense, Amount: decimal.NewFromInt(3)}
	assert.NoError(t, ok.Validate())

	noUser := ok
	noUser.UserID = ""
	assert.Error(t, noUser.Validate())

	badType := ok
	badType.Type = "transfer"
	assert.Error(t, badType.Validate())

	negative := ok
	negative.Amount = decimal.NewFromInt(-3)
	assert.Error(t, negative.Validate())

	badFreq := ok
	badFreq.RecurringFrequency = "hourly"
	assert.Error(t, badFreq.Validate())
}

func TestPeriodNext(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.AddDate(0, 0, 1), PeriodDaily.Next(base))
	assert.Equal(t, base.AddDate(0, 0, 7), PeriodWeekly.Next(base))
	assert.Equal(t, base.AddDate(0, 1, 0), PeriodMonthly.Next(base))
	assert.Equal(t, base.AddDate(1, 0, 0), PeriodYearly.Next(base))
	assert.Equal(t, base, Period("").Next(base))
}
