package bills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/llm"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// Gemini asks the generative model to spot recurring payments.
type Gemini struct {
	gen llm.Generator
	ids idgen.Generator
}

// NewGemini creates a Gemini bill predictor.
func NewGemini(gen llm.Generator, ids idgen.Generator) *Gemini {
	return &Gemini{gen: gen, ids: ids}
}

type billOutput struct {
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Category           string          `json:"category"`
	DueDate            string          `json:"dueDate"`
	IsRecurring        bool            `json:"isRecurring"`
	RecurringFrequency string          `json:"recurringFrequency"`
}

// Predict implements Predictor. Entries with an unparsable due date are
// skipped and logged; a due date on or before now is rolled forward.
func (g *Gemini) Predict(ctx context.Context, userID string, transactions []domain.Transaction, now time.Time) ([]domain.Bill, error) {
	prompt, err := buildBillsPrompt(transactions)
	if err != nil {
		return nil, fmt.Errorf("Gemini.Predict: build prompt: %w", err)
	}

	var raw []billOutput
	if err := llm.GenerateJSON(ctx, g.gen, prompt, &raw); err != nil {
		return nil, fmt.Errorf("Gemini.Predict: %w", err)
	}

	log := logger.FromContext(ctx)
	out := make([]domain.Bill, 0, len(raw))
	for i, b := range raw {
		due, err := time.Parse("2006-01-02", strings.TrimSpace(b.DueDate))
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("name", b.Name).Msg("skipping predicted bill with invalid due date")
			continue
		}
		freq := domain.Period(strings.ToLower(strings.TrimSpace(b.RecurringFrequency)))
		if !freq.Valid() {
			freq = ""
		}
		if freq != "" && !due.After(now) {
			due = nextDue(due, freq, now)
		}
		out = append(out, domain.Bill{
			ID:                 g.ids.NewID(),
			UserID:             userID,
			Name:               b.Name,
			Amount:             b.Amount.Abs(),
			DueDate:            due,
			Category:           b.Category,
			IsRecurring:        b.IsRecurring,
			RecurringFrequency: freq,
		})
	}
	sortBills(out)
	return out, nil
}

type billTxSummary struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	IsExpense   bool            `json:"isExpense"`
}

func buildBillsPrompt(transactions []domain.Transaction) (string, error) {
	summary := make([]billTxSummary, 0, len(transactions))
	for _, tx := range transactions {
		summary = append(summary, billTxSummary{
			Description: tx.Description,
			Amount:      tx.Amount,
			Date:        tx.Date.Format("2006-01-02"),
			Category:    tx.Category,
			IsExpense:   tx.IsExpense(),
		})
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("As a financial assistant, analyze the following transaction history to identify recurring bills and predict their next due dates.\n\n")
	b.WriteString("Transaction history:\n")
	b.Write(data)
	b.WriteString("\n\nIdentify recurring payments (bills) and predict:\n")
	b.WriteString("1. The bill name\n2. The typical amount\n3. The category\n4. The predicted next due date\n5. The recurring frequency (monthly, weekly, yearly)\n\n")
	b.WriteString("Return ONLY a raw JSON array of objects with these properties:\n")
	b.WriteString(`[{"name": "Bill name", "amount": 123.45, "category": "Category", "dueDate": "YYYY-MM-DD", "isRecurring": true, "recurringFrequency": "monthly"}]`)
	b.WriteString("\nOutput must begin with \"[\" and end with \"]\".\n")
	return b.String(), nil
}
