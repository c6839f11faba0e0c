package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

const transactionSelect = `
	SELECT
		transaction_id,
		user_id,
		type,
		category,
		description,
		amount,
		transaction_ts,
		is_recurring,
		recurring_frequency,
		attachment_uri
	FROM %s
	WHERE user_id = @user_id`

// ListTransactions implements store.Repository.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(transactionSelect, r.table(transactionsTable)) + `
		ORDER BY transaction_ts, transaction_id`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return rows, nil
}

// GetTransaction implements store.Repository.
func (r *Repository) GetTransaction(ctx context.Context, userID, transactionID string) (domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(transactionSelect, r.table(transactionsTable)) + `
		AND transaction_id = @transaction_id
		LIMIT 1`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}

	rows, err := readTransactions(ctx, q)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %w", err)
	}
	if len(rows) == 0 {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %s: %w", transactionID, store.ErrNotFound)
	}
	return rows[0], nil
}

func readTransactions(ctx context.Context, q *bigquery.Query) ([]domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	out := []domain.Transaction{}
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// SaveTransaction implements store.Repository with a MERGE keyed on transaction_id.
func (r *Repository) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id, @transaction_id AS transaction_id) S
		ON T.user_id = S.user_id AND T.transaction_id = S.transaction_id
		WHEN MATCHED THEN UPDATE SET
			type = @type,
			category = @category,
			description = @description,
			amount = CAST(@amount AS NUMERIC),
			transaction_ts = @transaction_ts,
			is_recurring = @is_recurring,
			recurring_frequency = @recurring_frequency,
			attachment_uri = @attachment_uri
		WHEN NOT MATCHED THEN INSERT (
			transaction_id, user_id, type, category, description, amount,
			transaction_ts, is_recurring, recurring_frequency, attachment_uri
		) VALUES (
			@transaction_id, @user_id, @type, @category, @description, CAST(@amount AS NUMERIC),
			@transaction_ts, @is_recurring, @recurring_frequency, @attachment_uri
		)
	`, r.table(transactionsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: tx.ID},
		{Name: "user_id", Value: tx.UserID},
		{Name: "type", Value: string(tx.Type)},
		{Name: "category", Value: nullString(tx.Category)},
		{Name: "description", Value: nullString(tx.Description)},
		{Name: "amount", Value: tx.Amount.String()},
		{Name: "transaction_ts", Value: tx.Date.UTC()},
		{Name: "is_recurring", Value: tx.IsRecurring},
		{Name: "recurring_frequency", Value: nullString(string(tx.RecurringFrequency))},
		{Name: "attachment_uri", Value: nullString(tx.AttachmentURI)},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveTransaction: %w", err)
	}
	return nil
}
