package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

// ListInsights implements store.Repository.
func (r *Repository) ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			insight_id,
			user_id,
			type,
			title,
			description,
			severity,
			is_read,
			created_ts,
			related_transaction_ids
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC, insight_id
	`, r.table(insightsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query read: %w", err)
	}

	out := []domain.FinancialInsight{}
	for {
		var row InsightRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInsights: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SaveInsight implements store.Repository with a MERGE keyed on insight_id.
func (r *Repository) SaveInsight(ctx context.Context, in domain.FinancialInsight) error {
	related := in.RelatedTransactionIDs
	if related == nil {
		related = []string{}
	}

	q := r.client.Query(fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id, @insight_id AS insight_id) S
		ON T.user_id = S.user_id AND T.insight_id = S.insight_id
		WHEN MATCHED THEN UPDATE SET
			type = @type,
			title = @title,
			description = @description,
			severity = @severity,
			is_read = @is_read,
			related_transaction_ids = @related_transaction_ids
		WHEN NOT MATCHED THEN INSERT (
			insight_id, user_id, type, title, description, severity, is_read, created_ts, related_transaction_ids
		) VALUES (
			@insight_id, @user_id, @type, @title, @description, @severity, @is_read, @created_ts, @related_transaction_ids
		)
	`, r.table(insightsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "insight_id", Value: in.ID},
		{Name: "user_id", Value: in.UserID},
		{Name: "type", Value: string(in.Type)},
		{Name: "title", Value: in.Title},
		{Name: "description", Value: nullString(in.Description)},
		{Name: "severity", Value: string(in.Severity)},
		{Name: "is_read", Value: in.IsRead},
		{Name: "created_ts", Value: in.CreatedAt.UTC()},
		{Name: "related_transaction_ids", Value: related},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("SaveInsight: %w", err)
	}
	return nil
}

// MarkInsightRead implements store.Repository.
func (r *Repository) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET is_read = TRUE
		WHERE user_id = @user_id AND insight_id = @insight_id
	`, r.table(insightsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "insight_id", Value: insightID},
	}

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("MarkInsightRead: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("MarkInsightRead: %s: %w", insightID, store.ErrNotFound)
	}
	return nil
}

// DeleteInsight implements store.Repository.
func (r *Repository) DeleteInsight(ctx context.Context, userID, insightID string) error {
	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = @user_id AND insight_id = @insight_id
	`, r.table(insightsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "insight_id", Value: insightID},
	}

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteInsight: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteInsight: %s: %w", insightID, store.ErrNotFound)
	}
	return nil
}
