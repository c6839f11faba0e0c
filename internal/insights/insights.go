// Package insights derives human-readable financial alerts from a user's
// transactions, budgets and an optional fraud assessment.
package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-advisor/internal/clock"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/idgen"
)

const (
	TitleLowSavings     = "Low savings rate"
	TitleHighSavings    = "High savings rate"
	TitleSubscriptions  = "Recurring subscription alert"
	TitleBudgetExceeded = "Budget exceeded"
	TitleBudgetNearing  = "Approaching budget limit"
	TitleFraud          = "Potential Fraudulent Transaction Detected"

	// More than this many subscriptions raises an insight.
	maxSubscriptions = 3
)

var (
	lowSavingsRate    = decimal.RequireFromString("0.10")
	highSavingsRate   = decimal.RequireFromString("0.30")
	subscriptionPrice = decimal.NewFromInt(50) // recurring monthly expenses below this are subscriptions
	budgetWarning     = decimal.RequireFromString("0.9")
)

// FraudMinConfidence is the confidence an assessment must exceed to raise
// a fraud insight.
const FraudMinConfidence = 0.6

// FraudSignal pairs an assessment with the transaction it was made for.
type FraudSignal struct {
	Transaction domain.Transaction
	Assessment  domain.FraudAssessment
}

// Generator evaluates the insight rules. It holds no per-call state and is
// safe for concurrent use if its clock and ID source are.
type Generator struct {
	clock clock.Clock
	ids   idgen.Generator
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the timestamp source for created insights.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithIDGenerator sets the identifier source for created insights.
func WithIDGenerator(ids idgen.Generator) Option {
	return func(g *Generator) { g.ids = ids }
}

// NewGenerator creates a Generator using the system clock and UUIDs unless
// overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{clock: clock.System{}, ids: idgen.UUID{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs every rule and returns the insights in rule order: savings
// rate, subscriptions, one per budget in input order, then fraud. signal may
// be nil.
func (g *Generator) Generate(userID string, transactions []domain.Transaction, budgets []domain.Budget, signal *FraudSignal) []domain.FinancialInsight {
	out := make([]domain.FinancialInsight, 0, 2+len(budgets)+1)

	if in, ok := g.savingsRate(userID, transactions); ok {
		out = append(out, in)
	}
	if in, ok := g.subscriptions(userID, transactions); ok {
		out = append(out, in)
	}
	for _, b := range budgets {
		if in, ok := g.budgetOverrun(userID, b, transactions); ok {
			out = append(out, in)
		}
	}
	if in, ok := g.Fraud(userID, signal); ok {
		out = append(out, in)
	}
	return out
}

func (g *Generator) savingsRate(userID string, transactions []domain.Transaction) (domain.FinancialInsight, bool) {
	var income, expense decimal.Decimal
	for _, tx := range transactions {
		switch {
		case tx.IsIncome():
			income = income.Add(tx.Amount)
		case tx.IsExpense():
			expense = expense.Add(tx.Amount)
		}
	}
	if income.IsZero() {
		return domain.FinancialInsight{}, false
	}

	rate := income.Sub(expense).Div(income)
	switch {
	case rate.LessThan(lowSavingsRate):
		return g.newInsight(userID, domain.InsightTypeSaving, domain.SeverityMedium, TitleLowSavings,
			"Your savings rate is below 10%. Consider reducing non-essential expenses to increase your savings."), true
	case rate.GreaterThan(highSavingsRate):
		return g.newInsight(userID, domain.InsightTypeInvestment, domain.SeverityLow, TitleHighSavings,
			"Great job! Your savings rate is above 30%. You might consider investing some of your savings for long-term growth."), true
	}
	return domain.FinancialInsight{}, false
}

func (g *Generator) subscriptions(userID string, transactions []domain.Transaction) (domain.FinancialInsight, bool) {
	var (
		count int
		total decimal.Decimal
	)
	for _, tx := range transactions {
		if tx.IsExpense() && tx.IsRecurring && tx.RecurringFrequency == domain.PeriodMonthly && tx.Amount.LessThan(subscriptionPrice) {
			count++
			total = total.Add(tx.Amount)
		}
	}
	if count <= maxSubscriptions {
		return domain.FinancialInsight{}, false
	}

	desc := fmt.Sprintf("You have %d active subscriptions totaling $%s monthly. Consider reviewing if you need all of them.",
		count, total.StringFixed(2))
	return g.newInsight(userID, domain.InsightTypeSpending, domain.SeverityLow, TitleSubscriptions, desc), true
}

func (g *Generator) budgetOverrun(userID string, b domain.Budget, transactions []domain.Transaction) (domain.FinancialInsight, bool) {
	spent := SpentFor(b, transactions)

	switch {
	case spent.GreaterThan(b.Limit):
		desc := fmt.Sprintf("You've exceeded your %s budget by $%s. Try to reduce spending in this category.",
			b.Category, spent.Sub(b.Limit).StringFixed(2))
		return g.newInsight(userID, domain.InsightTypeSpending, domain.SeverityHigh,
			TitleBudgetExceeded+": "+b.Category, desc), true
	case spent.GreaterThan(b.Limit.Mul(budgetWarning)):
		desc := fmt.Sprintf("You're close to exceeding your %s budget. You have $%s left.",
			b.Category, b.Limit.Sub(spent).StringFixed(2))
		return g.newInsight(userID, domain.InsightTypeSpending, domain.SeverityMedium,
			TitleBudgetNearing+": "+b.Category, desc), true
	}
	return domain.FinancialInsight{}, false
}

// Fraud builds the fraud insight for signal when the assessment is positive
// and confident enough. It is exported for callers that assess a single new
// transaction outside of a full analysis.
func (g *Generator) Fraud(userID string, signal *FraudSignal) (domain.FinancialInsight, bool) {
	if signal == nil || !signal.Assessment.IsFraudulent || signal.Assessment.Confidence <= FraudMinConfidence {
		return domain.FinancialInsight{}, false
	}

	tx := signal.Transaction
	desc := fmt.Sprintf("We detected a potentially fraudulent transaction: %q for $%s. %s",
		tx.Description, tx.Amount.StringFixed(2), signal.Assessment.Reasoning)
	in := g.newInsight(userID, domain.InsightTypeFraud, domain.SeverityHigh, TitleFraud, desc)
	if tx.ID != "" {
		in.RelatedTransactionIDs = []string{tx.ID}
	}
	return in, true
}

// SpentFor returns the budget's caller-supplied spent amount, or when absent
// the sum of expenses in the budget's category and date window.
func SpentFor(b domain.Budget, transactions []domain.Transaction) decimal.Decimal {
	if b.Spent.Valid {
		return b.Spent.Decimal
	}
	var spent decimal.Decimal
	for _, tx := range transactions {
		if tx.IsExpense() && tx.Category == b.Category && b.Covers(tx.Date) {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

func (g *Generator) newInsight(userID string, typ domain.InsightType, sev domain.Severity, title, desc string) domain.FinancialInsight {
	return domain.FinancialInsight{
		ID:          g.ids.NewID(),
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Description: desc,
		Severity:    sev,
		IsRead:      false,
		CreatedAt:   g.clock.Now(),
	}
}
