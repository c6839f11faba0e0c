package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is an upcoming (usually recurring) payment.
type Bill struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            time.Time       `json:"due_date"`
	Category           string          `json:"category"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency Period          `json:"recurring_frequency,omitempty"`
	IsPaid             bool            `json:"is_paid"`
}
