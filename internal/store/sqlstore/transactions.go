package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

const transactionColumns = `id, user_id, type, category, description, amount, date,
	is_recurring, recurring_frequency, attachment_uri`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (domain.Transaction, error) {
	var (
		tx   domain.Transaction
		typ  string
		freq string
	)
	if err := r.Scan(&tx.ID, &tx.UserID, &typ, &tx.Category, &tx.Description, &tx.Amount, &tx.Date,
		&tx.IsRecurring, &freq, &tx.AttachmentURI); err != nil {
		return domain.Transaction{}, err
	}
	tx.Type = domain.TransactionType(typ)
	tx.RecurringFrequency = domain.Period(freq)
	tx.Date = tx.Date.UTC()
	return tx, nil
}

// ListTransactions implements store.Repository.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := s.query(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY date, id", userID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query: %w", err)
	}
	defer rows.Close()

	out := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: rows: %w", err)
	}
	return out, nil
}

// GetTransaction implements store.Repository.
func (s *Store) GetTransaction(ctx context.Context, userID, transactionID string) (domain.Transaction, error) {
	row := s.queryRow(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? AND id = ?", userID, transactionID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %s: %w", transactionID, store.ErrNotFound)
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: scan: %w", err)
	}
	return tx, nil
}

// SaveTransaction implements store.Repository.
func (s *Store) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("SaveTransaction: %w", &domain.InvalidInputError{Field: "id", Reason: "and user_id are required", ID: tx.ID})
	}
	_, err := s.exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			type = excluded.type,
			category = excluded.category,
			description = excluded.description,
			amount = excluded.amount,
			date = excluded.date,
			is_recurring = excluded.is_recurring,
			recurring_frequency = excluded.recurring_frequency,
			attachment_uri = excluded.attachment_uri`,
		tx.ID, tx.UserID, string(tx.Type), tx.Category, tx.Description, tx.Amount, tx.Date.UTC(),
		tx.IsRecurring, string(tx.RecurringFrequency), tx.AttachmentURI)
	if err != nil {
		return fmt.Errorf("SaveTransaction: upsert: %w", err)
	}
	return nil
}
