// Package handlers exposes the advisor service over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/advisor"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/jobs"
	"github.com/dvloznov/finance-advisor/internal/store"
)

// MsgUnavailable is returned for internal failures on analysis endpoints.
const MsgUnavailable = "insights unavailable"

// MaxAttachmentBytes caps receipt uploads.
const MaxAttachmentBytes = 10 << 20

// Advisor is the subset of advisor.Service the handlers call.
type Advisor interface {
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, tx domain.Transaction) (*advisor.TransactionResult, error)
	AttachFile(ctx context.Context, userID, transactionID, contentType string, r io.Reader) (domain.Transaction, error)
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
	SaveBudget(ctx context.Context, b domain.Budget) (domain.Budget, error)
	Recommendations(ctx context.Context, userID string) ([]domain.BudgetRecommendation, error)
	ApplyRecommendation(ctx context.Context, userID, budgetID string) (domain.Budget, error)
	ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error)
	MarkInsightRead(ctx context.Context, userID, insightID string) error
	DeleteInsight(ctx context.Context, userID, insightID string) error
	PredictBills(ctx context.Context, userID string) ([]domain.Bill, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc       Advisor
	publisher jobs.Publisher
	jobs      jobs.JobStore
	log       zerolog.Logger
}

// New creates a Handler.
func New(svc Advisor, publisher jobs.Publisher, jobStore jobs.JobStore, log zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		publisher: publisher,
		jobs:      jobStore,
		log:       log,
	}
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/users/{userID}/transactions", h.ListTransactions)
	mux.HandleFunc("POST /api/users/{userID}/transactions", h.CreateTransaction)
	mux.HandleFunc("POST /api/users/{userID}/transactions/{txID}/attachment", h.UploadAttachment)

	mux.HandleFunc("GET /api/users/{userID}/budgets", h.ListBudgets)
	mux.HandleFunc("POST /api/users/{userID}/budgets", h.SaveBudget)

	mux.HandleFunc("GET /api/users/{userID}/recommendations", h.ListRecommendations)
	mux.HandleFunc("POST /api/users/{userID}/recommendations/{budgetID}/apply", h.ApplyRecommendation)

	mux.HandleFunc("GET /api/users/{userID}/insights", h.ListInsights)
	mux.HandleFunc("POST /api/users/{userID}/insights/{insightID}/read", h.MarkInsightRead)
	mux.HandleFunc("DELETE /api/users/{userID}/insights/{insightID}", h.DeleteInsight)

	mux.HandleFunc("POST /api/users/{userID}/analyze", h.EnqueueAnalysis)
	mux.HandleFunc("GET /api/users/{userID}/bills/predicted", h.PredictBills)

	mux.HandleFunc("GET /api/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/jobs/{jobID}", h.GetJob)

	return mux
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service errors to status codes. Internal errors
// are logged and reported with the generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var (
		invalid  *domain.InvalidInputError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &invalid):
		middleware.WriteError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &tooLarge):
		middleware.WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, advisor.ErrNoRecommendation):
		middleware.WriteError(w, http.StatusConflict, "No recommendation for this budget")
	case errors.Is(err, advisor.ErrAttachmentsDisabled):
		middleware.WriteError(w, http.StatusNotImplemented, "Attachments are not configured")
	default:
		h.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg(message)
		middleware.WriteError(w, http.StatusInternalServerError, message)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func listResponse[T any](key string, items []T) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		key:     items,
		"count": len(items),
	}
}

// HTTPHandler returns the routes wrapped in the standard middleware chain.
func (h *Handler) HTTPHandler() http.Handler {
	return middleware.Chain(h.Routes(),
		middleware.Recovery(h.log),
		middleware.RequestID,
		middleware.Logger(h.log),
		middleware.CORS,
		middleware.Auth,
	)
}
