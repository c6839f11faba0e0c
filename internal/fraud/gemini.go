package fraud

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/llm"
)

// maxHistory caps how many prior transactions are sent to the model.
const maxHistory = 100

// Gemini asks the generative model for a JSON verdict.
type Gemini struct {
	gen llm.Generator
}

// NewGemini creates a Gemini assessor on top of gen.
func NewGemini(gen llm.Generator) *Gemini {
	return &Gemini{gen: gen}
}

type txSummary struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func summarize(tx domain.Transaction) txSummary {
	return txSummary{
		Category:    tx.Category,
		Amount:      tx.Amount,
		Date:        tx.Date.Format(time.RFC3339),
		Description: tx.Description,
	}
}

// Assess implements Assessor. Confidence is clamped to [0, 1].
func (g *Gemini) Assess(ctx context.Context, tx domain.Transaction, history []domain.Transaction) (domain.FraudAssessment, error) {
	prompt, err := buildFraudPrompt(tx, history)
	if err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("Gemini.Assess: build prompt: %w", err)
	}

	var out domain.FraudAssessment
	if err := llm.GenerateJSON(ctx, g.gen, prompt, &out); err != nil {
		return domain.FraudAssessment{}, fmt.Errorf("Gemini.Assess: %w", err)
	}
	out.Confidence = min(max(out.Confidence, 0), 1)
	return out, nil
}

func buildFraudPrompt(tx domain.Transaction, history []domain.Transaction) (string, error) {
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	summaries := make([]txSummary, 0, len(history))
	for _, h := range history {
		if h.ID != "" && h.ID == tx.ID {
			continue
		}
		summaries = append(summaries, summarize(h))
	}

	historyJSON, err := json.Marshal(summaries)
	if err != nil {
		return "", err
	}
	newJSON, err := json.Marshal(summarize(tx))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("As a fraud detection system, analyze the following transaction history and determine if the new transaction is potentially fraudulent.\n\n")
	b.WriteString("Transaction history:\n")
	b.Write(historyJSON)
	b.WriteString("\n\nNew transaction:\n")
	b.Write(newJSON)
	b.WriteString("\n\nDetermine if the new transaction is potentially fraudulent based on:\n")
	b.WriteString("1. Unusual transaction amount compared to history\n")
	b.WriteString("2. Unusual category compared to spending patterns\n")
	b.WriteString("3. Unusual frequency of transactions\n")
	b.WriteString("4. Unusual location or merchant (if available)\n\n")
	b.WriteString("Return ONLY a raw JSON object with these properties:\n")
	b.WriteString("{\"isFraudulent\": true/false, \"confidence\": 0.0-1.0, \"reasoning\": \"short explanation\"}\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	return b.String(), nil
}
