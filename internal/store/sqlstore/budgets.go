package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

const budgetColumns = "id, user_id, category, limit_amount, spent, period, start_date, end_date"

func scanBudget(r rowScanner) (domain.Budget, error) {
	var (
		b          domain.Budget
		period     string
		start, end sql.NullTime
	)
	if err := r.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.Spent, &period, &start, &end); err != nil {
		return domain.Budget{}, err
	}
	b.Period = domain.Period(period)
	if start.Valid {
		b.StartDate = start.Time.UTC()
	}
	if end.Valid {
		b.EndDate = end.Time.UTC()
	}
	return b, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ListBudgets implements store.Repository.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	rows, err := s.query(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY category, id", userID)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: query: %w", err)
	}
	defer rows.Close()

	out := []domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBudgets: rows: %w", err)
	}
	return out, nil
}

// GetBudget implements store.Repository.
func (s *Store) GetBudget(ctx context.Context, userID, budgetID string) (domain.Budget, error) {
	row := s.queryRow(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND id = ?", userID, budgetID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Budget{}, fmt.Errorf("GetBudget: %s: %w", budgetID, store.ErrNotFound)
	}
	if err != nil {
		return domain.Budget{}, fmt.Errorf("GetBudget: scan: %w", err)
	}
	return b, nil
}

// SaveBudget implements store.Repository.
func (s *Store) SaveBudget(ctx context.Context, b domain.Budget) error {
	if b.ID == "" || b.UserID == "" {
		return fmt.Errorf("SaveBudget: %w", &domain.InvalidInputError{Field: "id", Reason: "and user_id are required", ID: b.ID})
	}
	_, err := s.exec(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			category = excluded.category,
			limit_amount = excluded.limit_amount,
			spent = excluded.spent,
			period = excluded.period,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		b.ID, b.UserID, b.Category, b.Limit, b.Spent, string(b.Period), nullTime(b.StartDate), nullTime(b.EndDate))
	if err != nil {
		return fmt.Errorf("SaveBudget: upsert: %w", err)
	}
	return nil
}
