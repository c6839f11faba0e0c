package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/store"
)

const insightColumns = "id, user_id, type, title, description, severity, is_read, created_at, related_transaction_ids"

// ListInsights implements store.Repository.
func (s *Store) ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error) {
	rows, err := s.query(ctx,
		"SELECT "+insightColumns+" FROM insights WHERE user_id = ? ORDER BY created_at DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query: %w", err)
	}
	defer rows.Close()

	out := []domain.FinancialInsight{}
	for rows.Next() {
		var (
			in        domain.FinancialInsight
			typ, sev  string
			relatedJS string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &typ, &in.Title, &in.Description, &sev, &in.IsRead, &in.CreatedAt, &relatedJS); err != nil {
			return nil, fmt.Errorf("ListInsights: scan: %w", err)
		}
		in.Type = domain.InsightType(typ)
		in.Severity = domain.Severity(sev)
		in.CreatedAt = in.CreatedAt.UTC()
		if err := json.Unmarshal([]byte(relatedJS), &in.RelatedTransactionIDs); err != nil {
			return nil, fmt.Errorf("ListInsights: decode related ids of %s: %w", in.ID, err)
		}
		if len(in.RelatedTransactionIDs) == 0 {
			in.RelatedTransactionIDs = nil
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListInsights: rows: %w", err)
	}
	return out, nil
}

// SaveInsight implements store.Repository.
func (s *Store) SaveInsight(ctx context.Context, in domain.FinancialInsight) error {
	if in.ID == "" || in.UserID == "" {
		return fmt.Errorf("SaveInsight: %w", &domain.InvalidInputError{Field: "id", Reason: "and user_id are required", ID: in.ID})
	}
	related := in.RelatedTransactionIDs
	if related == nil {
		related = []string{}
	}
	relatedJS, err := json.Marshal(related)
	if err != nil {
		return fmt.Errorf("SaveInsight: encode related ids: %w", err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO insights (`+insightColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			description = excluded.description,
			severity = excluded.severity,
			is_read = excluded.is_read,
			created_at = excluded.created_at,
			related_transaction_ids = excluded.related_transaction_ids`,
		in.ID, in.UserID, string(in.Type), in.Title, in.Description, string(in.Severity), in.IsRead,
		in.CreatedAt.UTC(), string(relatedJS))
	if err != nil {
		return fmt.Errorf("SaveInsight: upsert: %w", err)
	}
	return nil
}

// MarkInsightRead implements store.Repository.
func (s *Store) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	res, err := s.exec(ctx, "UPDATE insights SET is_read = ? WHERE user_id = ? AND id = ?", true, userID, insightID)
	if err != nil {
		return fmt.Errorf("MarkInsightRead: update: %w", err)
	}
	return requireAffected(res, "MarkInsightRead", insightID)
}

// DeleteInsight implements store.Repository.
func (s *Store) DeleteInsight(ctx context.Context, userID, insightID string) error {
	res, err := s.exec(ctx, "DELETE FROM insights WHERE user_id = ? AND id = ?", userID, insightID)
	if err != nil {
		return fmt.Errorf("DeleteInsight: delete: %w", err)
	}
	return requireAffected(res, "DeleteInsight", insightID)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(res rowsAffecter, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s: %w", op, id, store.ErrNotFound)
	}
	return nil
}
