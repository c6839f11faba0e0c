// Package advisor is the application service behind the API, worker and
// CLI. It loads user data from the repository, runs the recommendation
// engine and insight generator, and calls the AI collaborators.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/attachments"
	"github.com/dvloznov/finance-advisor/internal/bills"
	"github.com/dvloznov/finance-advisor/internal/cache"
	"github.com/dvloznov/finance-advisor/internal/categorize"
	"github.com/dvloznov/finance-advisor/internal/clock"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/fraud"
	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/insights"
	"github.com/dvloznov/finance-advisor/internal/recommend"
	"github.com/dvloznov/finance-advisor/internal/store"
)

// DefaultCacheTTL is how long an analysis report is reused.
const DefaultCacheTTL = 10 * time.Minute

// ErrNoRecommendation is returned when applying a recommendation to a budget
// whose spending is on track.
var ErrNoRecommendation = errors.New("no recommendation for budget")

// ErrAttachmentsDisabled is returned when no attachment storage is configured.
var ErrAttachmentsDisabled = errors.New("attachments are not configured")

// Report is the result of a full analysis.
type Report struct {
	UserID          string                        `json:"user_id"`
	GeneratedAt     time.Time                     `json:"generated_at"`
	Recommendations []domain.BudgetRecommendation `json:"recommendations"`
	Insights        []domain.FinancialInsight     `json:"insights"`
}

// TransactionResult describes what happened when a transaction was added.
type TransactionResult struct {
	Transaction  domain.Transaction       `json:"transaction"`
	Category     *domain.CategoryLabel    `json:"category,omitempty"`
	Assessment   domain.FraudAssessment   `json:"fraud_assessment"`
	FraudInsight *domain.FinancialInsight `json:"fraud_insight,omitempty"`
}

// Service coordinates storage, the engines and the AI collaborators.
type Service struct {
	repo        store.Repository
	categorizer categorize.Categorizer
	assessor    fraud.Assessor
	predictor   bills.Predictor
	attachments *attachments.Service

	cache    cache.Cache
	cacheTTL time.Duration

	clock     clock.Clock
	ids       idgen.Generator
	generator *insights.Generator
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables report caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithAttachments enables transaction attachments.
func WithAttachments(a *attachments.Service) Option {
	return func(s *Service) { s.attachments = a }
}

// WithClock sets the time source for records and insights.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator sets the identifier source for new records.
func WithIDGenerator(ids idgen.Generator) Option {
	return func(s *Service) { s.ids = ids }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a Service. Categorizer and assessor errors are tolerated, but
// wrapping them with categorize.WithFallback / fraud.WithFallback is
// recommended so failures are logged once at the source.
func New(repo store.Repository, categorizer categorize.Categorizer, assessor fraud.Assessor, predictor bills.Predictor, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		categorizer: categorizer,
		assessor:    assessor,
		predictor:   predictor,
		cache:       cache.Noop{},
		cacheTTL:    DefaultCacheTTL,
		clock:       clock.System{},
		ids:         idgen.UUID{},
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = insights.NewGenerator(insights.WithClock(s.clock), insights.WithIDGenerator(s.ids))
	return s
}

func reportKey(userID string) string {
	return "report:" + userID
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, reportKey(userID)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate cached report")
	}
}

// Analyze runs the recommendation engine and insight generator for userID,
// persists the new insights and caches the report.
func (s *Service) Analyze(ctx context.Context, userID string) (*Report, error) {
	var cached Report
	hit, err := cache.GetJSON(ctx, s.cache, reportKey(userID), &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("report cache read failed")
	}
	if hit {
		return &cached, nil
	}

	txs, budgets, err := s.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}

	recs, err := recommend.Recommend(txs, budgets)
	if err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}
	generated := s.generator.Generate(userID, txs, budgets, nil)
	for _, in := range generated {
		if err := s.repo.SaveInsight(ctx, in); err != nil {
			return nil, fmt.Errorf("Analyze: save insight: %w", err)
		}
	}

	report := &Report{
		UserID:          userID,
		GeneratedAt:     s.clock.Now(),
		Recommendations: recs,
		Insights:        generated,
	}
	if err := cache.SetJSON(ctx, s.cache, reportKey(userID), report, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("report cache write failed")
	}

	s.log.Info().
		Str("user_id", userID).
		Int("transactions", len(txs)).
		Int("budgets", len(budgets)).
		Int("recommendations", len(recs)).
		Int("insights", len(generated)).
		Msg("analysis finished")
	return report, nil
}

// Recommendations returns fresh budget recommendations without persisting
// anything.
func (s *Service) Recommendations(ctx context.Context, userID string) ([]domain.BudgetRecommendation, error) {
	txs, budgets, err := s.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Recommendations: %w", err)
	}
	recs, err := recommend.Recommend(txs, budgets)
	if err != nil {
		return nil, fmt.Errorf("Recommendations: %w", err)
	}
	return recs, nil
}

// ApplyRecommendation sets the budget's limit to the currently recommended
// amount and saves it.
func (s *Service) ApplyRecommendation(ctx context.Context, userID, budgetID string) (domain.Budget, error) {
	b, err := s.repo.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: %w", err)
	}
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: list transactions: %w", err)
	}

	recs, err := recommend.Recommend(txs, []domain.Budget{b})
	if err != nil {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: %w", err)
	}
	if len(recs) == 0 {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: %s: %w", budgetID, ErrNoRecommendation)
	}
	if !recs[0].RecommendedAmount.IsPositive() {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: %w", &domain.InvalidInputError{
			Field: "recommended_amount", Reason: "must be positive to apply", ID: budgetID,
		})
	}

	b.Limit = recs[0].RecommendedAmount
	if err := s.repo.SaveBudget(ctx, b); err != nil {
		return domain.Budget{}, fmt.Errorf("ApplyRecommendation: save budget: %w", err)
	}
	s.invalidate(ctx, userID)
	return b, nil
}

// AddTransaction categorizes tx when it has no category, assesses it for
// fraud against the user's history, saves it and records a fraud insight
// when the assessment is confident.
func (s *Service) AddTransaction(ctx context.Context, tx domain.Transaction) (*TransactionResult, error) {
	if tx.ID == "" {
		tx.ID = s.ids.NewID()
	}
	if tx.Date.IsZero() {
		tx.Date = s.clock.Now()
	}
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	result := &TransactionResult{}
	if tx.Category == "" {
		label, err := s.categorizer.Categorize(ctx, tx.Description, tx.Amount)
		if err != nil {
			s.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("categorization failed, using default category")
			label = domain.CategoryLabel{Category: categorize.DefaultCategory}
		}
		tx.Category = label.Category
		result.Category = &label
	}

	history, err := s.repo.ListTransactions(ctx, tx.UserID)
	if err != nil {
		return nil, fmt.Errorf("AddTransaction: list history: %w", err)
	}
	assessment, err := s.assessor.Assess(ctx, tx, history)
	if err != nil {
		s.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("fraud assessment failed, assuming not fraudulent")
		assessment = domain.FraudAssessment{Reasoning: fraud.FallbackReasoning}
	}
	result.Assessment = assessment

	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("AddTransaction: save transaction: %w", err)
	}
	result.Transaction = tx

	if in, ok := s.generator.Fraud(tx.UserID, &insights.FraudSignal{Transaction: tx, Assessment: assessment}); ok {
		if err := s.repo.SaveInsight(ctx, in); err != nil {
			return nil, fmt.Errorf("AddTransaction: save fraud insight: %w", err)
		}
		result.FraudInsight = &in
		s.log.Warn().Str("user_id", tx.UserID).Str("transaction_id", tx.ID).
			Float64("confidence", assessment.Confidence).Msg("potential fraudulent transaction")
	}

	s.invalidate(ctx, tx.UserID)
	return result, nil
}

// ImportTransactions saves already-categorized transactions, e.g. from a
// bank statement, without fraud checks. It returns how many were saved.
func (s *Service) ImportTransactions(ctx context.Context, userID string, txs []domain.Transaction) (int, error) {
	saved := 0
	for _, tx := range txs {
		tx.UserID = userID
		if tx.ID == "" {
			tx.ID = s.ids.NewID()
		}
		if err := tx.Validate(); err != nil {
			return saved, fmt.Errorf("ImportTransactions: %w", err)
		}
		if err := s.repo.SaveTransaction(ctx, tx); err != nil {
			return saved, fmt.Errorf("ImportTransactions: save %s: %w", tx.ID, err)
		}
		saved++
	}
	if saved > 0 {
		s.invalidate(ctx, userID)
	}
	return saved, nil
}

// AttachFile uploads a receipt for a transaction and records its URI.
func (s *Service) AttachFile(ctx context.Context, userID, transactionID, contentType string, r io.Reader) (domain.Transaction, error) {
	if s.attachments == nil {
		return domain.Transaction{}, fmt.Errorf("AttachFile: %w", ErrAttachmentsDisabled)
	}
	tx, err := s.repo.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AttachFile: %w", err)
	}
	uri, err := s.attachments.Attach(ctx, userID, transactionID, contentType, r)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AttachFile: %w", err)
	}
	tx.AttachmentURI = uri
	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("AttachFile: save transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the user's transactions.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, userID)
}

// ListBudgets returns the user's budgets.
func (s *Service) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	return s.repo.ListBudgets(ctx, userID)
}

// SaveBudget validates and upserts a budget, assigning an ID when missing.
func (s *Service) SaveBudget(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	if b.ID == "" {
		b.ID = s.ids.NewID()
	}
	if b.UserID == "" {
		return domain.Budget{}, fmt.Errorf("SaveBudget: %w", &domain.InvalidInputError{Field: "user_id", Reason: "is required", ID: b.ID})
	}
	if err := b.Validate(); err != nil {
		return domain.Budget{}, fmt.Errorf("SaveBudget: %w", err)
	}
	if err := s.repo.SaveBudget(ctx, b); err != nil {
		return domain.Budget{}, fmt.Errorf("SaveBudget: %w", err)
	}
	s.invalidate(ctx, b.UserID)
	return b, nil
}

// ListInsights returns the user's insights, newest first.
func (s *Service) ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error) {
	return s.repo.ListInsights(ctx, userID)
}

// MarkInsightRead flags an insight as read.
func (s *Service) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	if err := s.repo.MarkInsightRead(ctx, userID, insightID); err != nil {
		return fmt.Errorf("MarkInsightRead: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// DeleteInsight removes an insight.
func (s *Service) DeleteInsight(ctx context.Context, userID, insightID string) error {
	if err := s.repo.DeleteInsight(ctx, userID, insightID); err != nil {
		return fmt.Errorf("DeleteInsight: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// PredictBills returns the user's upcoming recurring bills.
func (s *Service) PredictBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("PredictBills: list transactions: %w", err)
	}
	out, err := s.predictor.Predict(ctx, userID, txs, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("PredictBills: %w", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, userID string) ([]domain.Transaction, []domain.Budget, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list budgets: %w", err)
	}
	return txs, budgets, nil
}
