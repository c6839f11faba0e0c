package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

const budgetSelect = `
	SELECT budget_id, user_id, category, limit_amount, spent, period, start_date, end_date
	FROM %s
	WHERE user_id = @user_id`

// ListBudgets implements store.Repository.
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	q := r.client.Query(fmt.Sprintf(budgetSelect, r.table(budgetsTable)) + `
		ORDER BY category, budget_id`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	out, err := readBudgets(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	return out, nil
}

// GetBudget implements store.Repository.
func (r *Repository) GetBudget(ctx context.Context, userID, budgetID string) (domain.Budget, error) {
	q := r.client.Query(fmt.Sprintf(budgetSelect, r.table(budgetsTable)) + `
		AND budget_id = @budget_id
		LIMIT 1`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "budget_id", Value: budgetID},
	}

	out, err := readBudgets(ctx, q)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("GetBudget: %w", err)
	}
	if len(out) == 0 {
		return domain.Budget{}, fmt.Errorf("GetBudget: %s: %w", budgetID, store.ErrNotFound)
	}
	return out[0], nil
}

func readBudgets(ctx context.Context, q *bigquery.Query) ([]domain.Budget, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	out := []domain.Budget{}
	for {
		var row BudgetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// SaveBudget implements store.Repository with a MERGE keyed on budget_id.
func (r *Repository) SaveBudget(ctx context.Context, b domain.Budget) error {
	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id, @budget_id AS budget_id) S
		ON T.user_id = S.user_id AND T.budget_id = S.budget_id
		WHEN MATCHED THEN UPDATE SET
			category = @category,
			limit_amount = CAST(@limit_amount AS NUMERIC),
			spent = CAST(@spent AS NUMERIC),
			period = @period,
			start_date = @start_date,
			end_date = @end_date
		WHEN NOT MATCHED THEN INSERT (
			budget_id, user_id, category, limit_amount, spent, period, start_date, end_date
		) VALUES (
			@budget_id, @user_id, @category, CAST(@limit_amount AS NUMERIC), CAST(@spent AS NUMERIC),
			@period, @start_date, @end_date
		)
	`, r.table(budgetsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "budget_id", Value: b.ID},
		{Name: "user_id", Value: b.UserID},
		{Name: "category", Value: b.Category},
		{Name: "limit_amount", Value: b.Limit.String()},
		{Name: "spent", Value: nullNumeric(b.Spent)},
		{Name: "period", Value: nullString(string(b.Period))},
		{Name: "start_date", Value: nullDate(b.StartDate)},
		{Name: "end_date", Value: nullDate(b.EndDate)},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveBudget: %w", err)
	}
	return nil
}
