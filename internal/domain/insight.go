package domain

import "time"

// InsightType tags what an insight is about.
type InsightType string

const (
	InsightTypeSpending   InsightType = "spending"
	InsightTypeSaving     InsightType = "saving"
	InsightTypeInvestment InsightType = "investment"
	InsightTypeFraud      InsightType = "fraud"
)

// Severity is used for UI prioritization only.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FinancialInsight is a human-readable alert produced by the insight generator.
// After creation only the caller mutates it (marking read) or deletes it.
type FinancialInsight struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	IsRead      bool        `json:"is_read"`
	CreatedAt   time.Time   `json:"created_at"`

	RelatedTransactionIDs []string `json:"related_transaction_ids,omitempty"`
}
