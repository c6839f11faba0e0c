package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// numericScale is the fractional precision of BigQuery NUMERIC.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED
	Type          string `bigquery:"type"`           // REQUIRED

	Category    bigquery.NullString `bigquery:"category"`    // NULLABLE
	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	Amount        *big.Rat  `bigquery:"amount"`         // REQUIRED NUMERIC
	TransactionTS time.Time `bigquery:"transaction_ts"` // REQUIRED

	IsRecurring        bigquery.NullBool   `bigquery:"is_recurring"`
	RecurringFrequency bigquery.NullString `bigquery:"recurring_frequency"` // NULLABLE
	AttachmentURI      bigquery.NullString `bigquery:"attachment_uri"`      // NULLABLE
}

func (r TransactionRow) toDomain() (domain.Transaction, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: amount: %w", r.TransactionID, err)
	}
	return domain.Transaction{
		ID:                 r.TransactionID,
		UserID:             r.UserID,
		Type:               domain.TransactionType(r.Type),
		Category:           r.Category.StringVal,
		Description:        r.Description.StringVal,
		Amount:             amount,
		Date:               r.TransactionTS.UTC(),
		IsRecurring:        r.IsRecurring.Valid && r.IsRecurring.Bool,
		RecurringFrequency: domain.Period(r.RecurringFrequency.StringVal),
		AttachmentURI:      r.AttachmentURI.StringVal,
	}, nil
}

type BudgetRow struct {
	BudgetID    string   `bigquery:"budget_id"`    // REQUIRED
	UserID      string   `bigquery:"user_id"`      // REQUIRED
	Category    string   `bigquery:"category"`     // REQUIRED
	LimitAmount *big.Rat `bigquery:"limit_amount"` // REQUIRED NUMERIC
	Spent       *big.Rat `bigquery:"spent"`        // NULLABLE NUMERIC

	Period    bigquery.NullString `bigquery:"period"`     // NULLABLE
	StartDate bigquery.NullDate   `bigquery:"start_date"` // NULLABLE
	EndDate   bigquery.NullDate   `bigquery:"end_date"`   // NULLABLE
}

func (r BudgetRow) toDomain() (domain.Budget, error) {
	limit, err := ratToDecimal(r.LimitAmount)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("budget %s: limit: %w", r.BudgetID, err)
	}
	b := domain.Budget{
		ID:       r.BudgetID,
		UserID:   r.UserID,
		Category: r.Category,
		Limit:    limit,
		Period:   domain.Period(r.Period.StringVal),
	}
	if r.Spent != nil {
		spent, err := ratToDecimal(r.Spent)
		if err != nil {
			return domain.Budget{}, fmt.Errorf("budget %s: spent: %w", r.BudgetID, err)
		}
		b.Spent = decimal.NewNullDecimal(spent)
	}
	if r.StartDate.Valid {
		b.StartDate = r.StartDate.Date.In(time.UTC)
	}
	if r.EndDate.Valid {
		b.EndDate = r.EndDate.Date.In(time.UTC)
	}
	return b, nil
}

type InsightRow struct {
	InsightID   string              `bigquery:"insight_id"` // REQUIRED
	UserID      string              `bigquery:"user_id"`    // REQUIRED
	Type        string              `bigquery:"type"`       // REQUIRED
	Title       string              `bigquery:"title"`      // REQUIRED
	Description bigquery.NullString `bigquery:"description"`
	Severity    string              `bigquery:"severity"` // REQUIRED
	IsRead      bool                `bigquery:"is_read"`  // REQUIRED
	CreatedTS   time.Time           `bigquery:"created_ts"`

	RelatedTransactionIDs []string `bigquery:"related_transaction_ids"` // REPEATED STRING
}

func (r InsightRow) toDomain() domain.FinancialInsight {
	in := domain.FinancialInsight{
		ID:          r.InsightID,
		UserID:      r.UserID,
		Type:        domain.InsightType(r.Type),
		Title:       r.Title,
		Description: r.Description.StringVal,
		Severity:    domain.Severity(r.Severity),
		IsRead:      r.IsRead,
		CreatedAt:   r.CreatedTS.UTC(),
	}
	if len(r.RelatedTransactionIDs) > 0 {
		in.RelatedTransactionIDs = r.RelatedTransactionIDs
	}
	return in
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.FloatString(numericScale))
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullDate(t time.Time) bigquery.NullDate {
	if t.IsZero() {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: civil.DateOf(t.UTC()), Valid: true}
}

// nullNumeric passes a nullable decimal as a string parameter; queries CAST
// it to NUMERIC so NULL survives.
func nullNumeric(d decimal.NullDecimal) bigquery.NullString {
	if !d.Valid {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: d.Decimal.String(), Valid: true}
}
