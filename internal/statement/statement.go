// Package statement extracts transactions from bank statements with the
// generative model and labels them with the configured categorizer.
package statement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/categorize"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/llm"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// Analyzer turns statement text or PDF bytes into transactions.
type Analyzer struct {
	gen         llm.Generator
	categorizer categorize.Categorizer
	ids         idgen.Generator
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(gen llm.Generator, categorizer categorize.Categorizer, ids idgen.Generator) *Analyzer {
	return &Analyzer{gen: gen, categorizer: categorizer, ids: ids}
}

// AnalyzeText extracts transactions from plain statement text.
func (a *Analyzer) AnalyzeText(ctx context.Context, userID, text string) ([]domain.Transaction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("AnalyzeText: empty statement")
	}
	var raw []map[string]interface{}
	if err := llm.GenerateJSON(ctx, a.gen, buildStatementPrompt(text), &raw); err != nil {
		return nil, fmt.Errorf("AnalyzeText: %w", err)
	}
	return a.toTransactions(ctx, userID, raw)
}

// AnalyzePDF extracts transactions from a PDF statement.
func (a *Analyzer) AnalyzePDF(ctx context.Context, userID string, pdf []byte) ([]domain.Transaction, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("AnalyzePDF: empty statement")
	}
	var raw []map[string]interface{}
	att := llm.Attachment{MIMEType: "application/pdf", Data: pdf}
	if err := llm.GenerateJSON(ctx, a.gen, buildStatementPrompt(""), &raw, att); err != nil {
		return nil, fmt.Errorf("AnalyzePDF: %w", err)
	}
	return a.toTransactions(ctx, userID, raw)
}

// toTransactions validates each extracted row. Malformed rows are skipped
// and logged so one bad line does not discard the whole statement.
func (a *Analyzer) toTransactions(ctx context.Context, userID string, raw []map[string]interface{}) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)
	out := make([]domain.Transaction, 0, len(raw))

	for i, obj := range raw {
		tx, err := parseRow(obj)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("skipping statement row")
			continue
		}
		tx.ID = a.ids.NewID()
		tx.UserID = userID

		label, err := a.categorizer.Categorize(ctx, tx.Description, tx.Amount)
		if err != nil {
			return nil, fmt.Errorf("toTransactions: categorize row %d: %w", i, err)
		}
		tx.Category = label.Category
		out = append(out, tx)
	}
	return out, nil
}

func parseRow(obj map[string]interface{}) (domain.Transaction, error) {
	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return domain.Transaction{}, err
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return domain.Transaction{}, err
	}
	amount, err := getDecimalField(obj, "amount")
	if err != nil {
		return domain.Transaction{}, err
	}
	isExpense, err := getOptionalBoolField(obj, "isExpense")
	if err != nil {
		return domain.Transaction{}, err
	}

	expense := amount.IsNegative()
	if isExpense != nil {
		expense = *isExpense
	}
	typ := domain.TransactionTypeIncome
	if expense {
		typ = domain.TransactionTypeExpense
	}

	return domain.Transaction{
		Type:        typ,
		Description: strings.TrimSpace(desc),
		Amount:      amount.Abs(),
		Date:        date,
	}, nil
}

func buildStatementPrompt(text string) string {
	var b strings.Builder
	b.WriteString("As a financial assistant, extract transactions from the ")
	if text == "" {
		b.WriteString("attached bank statement.\n")
	} else {
		b.WriteString("following bank statement text.\n")
	}
	b.WriteString("For each transaction, identify:\n")
	b.WriteString("1. Date\n2. Description\n3. Amount\n4. Whether it's an expense (true) or income (false)\n\n")
	b.WriteString("Return ONLY a raw JSON array of objects with these properties:\n")
	b.WriteString(`[{"date": "YYYY-MM-DD", "description": "Transaction description", "amount": 123.45, "isExpense": true}]`)
	b.WriteString("\nDo NOT wrap the response in code fences.\n")
	if text != "" {
		b.WriteString("\nBank statement:\n")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	val, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	if required && strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("required field %q is empty", key)
	}
	return val, nil
}

// getDecimalField accepts a JSON number or a numeric string such as "1,234.50".
func getDecimalField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Decimal{}, fmt.Errorf("missing required field %q", key)
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		cleaned := strings.NewReplacer(",", "", "$", "", "£", "", "€", "").Replace(strings.TrimSpace(val))
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("field %q: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

func getOptionalBoolField(m map[string]interface{}, key string) (*bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want bool or null", key, v)
	}
	return &b, nil
}
