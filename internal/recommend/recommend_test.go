package recommend

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

func expense(category string, amount string) domain.Transaction {
	return domain.Transaction{
		Type:     domain.TransactionTypeExpense,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	}
}

func budget(id, category, limit string) domain.Budget {
	return domain.Budget{
		ID:       id,
		Category: category,
		Limit:    decimal.RequireFromString(limit),
		Period:   domain.PeriodMonthly,
	}
}

func TestRecommend_UnderBudget(t *testing.T) {
	recs, err := Recommend(
		[]domain.Transaction{expense("Food", "100"), expense("Food", "100")},
		[]domain.Budget{budget("b1", "Food", "300")},
	)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "b1", rec.BudgetID)
	assert.Equal(t, "Food", rec.Category)
	assert.True(t, rec.RecommendedAmount.Equal(decimal.NewFromInt(240)), "got %s", rec.RecommendedAmount)
	assert.True(t, rec.CurrentAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, domain.PeriodMonthly, rec.Period)
	assert.Equal(t, "Your spending in Food is consistently under budget. You could reduce this budget by 60.00.", rec.Reasoning)
}

func TestRecommend_OverBudget(t *testing.T) {
	recs, err := Recommend(
		[]domain.Transaction{expense("Transport", "100"), expense("Transport", "80")},
		[]domain.Budget{budget("b2", "Transport", "150")},
	)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].RecommendedAmount.Equal(decimal.NewFromInt(198)), "got %s", recs[0].RecommendedAmount)
	assert.Equal(t, "Your spending in Transport consistently exceeds your budget. Consider increasing it by 48.00.", recs[0].Reasoning)
}

func TestRecommend_OnTrackBand(t *testing.T) {
	tests := []struct {
		name  string
		spent string
	}{
		{"exactly 70%", "210"},
		{"middle", "300"},
		{"exactly 110%", "330"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := Recommend(
				[]domain.Transaction{expense("Food", tt.spent)},
				[]domain.Budget{budget("b1", "Food", "300")},
			)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestRecommend_DirectionBounds(t *testing.T) {
	limit := "100"
	for _, spent := range []string{"0", "1", "33.33", "50", "69.99"} {
		recs, err := Recommend([]domain.Transaction{expense("X", spent)}, []domain.Budget{budget("b", "X", limit)})
		require.NoError(t, err)
		require.Len(t, recs, 1, "spent %s", spent)
		assert.True(t, recs[0].RecommendedAmount.LessThanOrEqual(decimal.RequireFromString(limit)), "spent %s -> %s", spent, recs[0].RecommendedAmount)
	}
	for _, spent := range []string{"110.01", "150", "1000"} {
		recs, err := Recommend([]domain.Transaction{expense("X", spent)}, []domain.Budget{budget("b", "X", limit)})
		require.NoError(t, err)
		require.Len(t, recs, 1, "spent %s", spent)
		assert.True(t, recs[0].RecommendedAmount.GreaterThanOrEqual(decimal.RequireFromString(limit)), "spent %s -> %s", spent, recs[0].RecommendedAmount)
	}
}

func TestRecommend_IgnoresIncomeAndOtherCategories(t *testing.T) {
	txs := []domain.Transaction{
		expense("food", "500"), // case differs
		{Type: domain.TransactionTypeIncome, Category: "Food", Amount: decimal.NewFromInt(500)},
		expense("Food", "250"),
	}
	recs, err := Recommend(txs, []domain.Budget{budget("b1", "Food", "300")})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecommend_NoSpendRecommendsZero(t *testing.T) {
	recs, err := Recommend(nil, []domain.Budget{budget("b1", "Travel", "400")})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].RecommendedAmount.IsZero())
}

func TestRecommend_NeverInventsBudgets(t *testing.T) {
	txs := []domain.Transaction{expense("Food", "10"), expense("Rent", "2000"), expense("Fun", "5")}
	budgets := []domain.Budget{budget("b1", "Food", "300"), budget("b2", "Fun", "10")}

	recs, err := Recommend(txs, budgets)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs), len(budgets))
	for _, rec := range recs {
		assert.Contains(t, []string{"Food", "Fun"}, rec.Category)
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	txs := []domain.Transaction{expense("Food", "12.345"), expense("Transport", "900")}
	budgets := []domain.Budget{budget("b1", "Food", "300"), budget("b2", "Transport", "150")}

	first, err := Recommend(txs, budgets)
	require.NoError(t, err)
	second, err := Recommend(txs, budgets)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommend_RoundsHalfAwayFromZero(t *testing.T) {
	// 52.92 * 1.2 = 63.504
	recs, err := Recommend([]domain.Transaction{expense("A", "52.92")}, []domain.Budget{budget("b", "A", "100")})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "64", recs[0].RecommendedAmount.String())
}

func TestRecommend_FractionalLimitsKeepDirection(t *testing.T) {
	tests := []struct {
		name  string
		limit string
		spent string
		want  string
	}{
		// 0.34 * 1.1 = 0.374 rounds to 0, below the 0.3 limit
		{"increase rounds up", "0.3", "0.34", "1"},
		// 1.33 * 1.1 = 1.463 rounds to 1, below the 1.2 limit
		{"increase rounds up past limit", "1.2", "1.33", "2"},
		// 0.62 * 1.2 = 0.744 rounds to 1, above the 0.9 limit
		{"decrease rounds down", "0.9", "0.62", "0"},
		// 200 * 1.2 = 240 needs no adjustment
		{"whole limits unaffected", "300", "200", "240"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := decimal.RequireFromString(tt.limit)
			recs, err := Recommend([]domain.Transaction{expense("A", tt.spent)}, []domain.Budget{budget("b", "A", tt.limit)})
			require.NoError(t, err)
			require.Len(t, recs, 1)
			got := recs[0].RecommendedAmount
			assert.Equal(t, tt.want, got.String())
			assert.True(t, got.Equal(got.Round(0)), "not a whole unit: %s", got)
			if decimal.RequireFromString(tt.spent).GreaterThan(limit) {
				assert.True(t, got.GreaterThanOrEqual(limit), "increase %s below limit %s", got, limit)
			} else {
				assert.True(t, got.LessThanOrEqual(limit), "decrease %s above limit %s", got, limit)
			}
		})
	}
}

func TestRecommend_InvalidLimit(t *testing.T) {
	for _, limit := range []string{"0", "-10"} {
		recs, err := Recommend(nil, []domain.Budget{budget("ok", "A", "10"), budget("bad", "B", limit)})
		assert.Nil(t, recs)

		var inputErr *domain.InvalidInputError
		require.True(t, errors.As(err, &inputErr), "limit %s: got %v", limit, err)
		assert.Equal(t, "bad", inputErr.ID)
		assert.Equal(t, "limit", inputErr.Field)
	}
}

func TestRecommend_EmptyInputs(t *testing.T) {
	recs, err := Recommend(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}
