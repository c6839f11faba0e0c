package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// ListBudgets handles GET /api/users/{userID}/budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.ListBudgets(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list budgets")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("budgets", budgets))
}

// SaveBudget handles POST /api/users/{userID}/budgets. A body with an id
// updates that budget.
func (h *Handler) SaveBudget(w http.ResponseWriter, r *http.Request) {
	var b domain.Budget
	if err := decodeJSON(r, &b); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.UserID = r.PathValue("userID")

	saved, err := h.svc.SaveBudget(r.Context(), b)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to save budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, saved)
}

// ListRecommendations handles GET /api/users/{userID}/recommendations.
func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("recommendations", recs))
}

// ApplyRecommendation handles POST /api/users/{userID}/recommendations/{budgetID}/apply.
func (h *Handler) ApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ApplyRecommendation(r.Context(), r.PathValue("userID"), r.PathValue("budgetID"))
	if err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, b)
}

// PredictBills handles GET /api/users/{userID}/bills/predicted.
func (h *Handler) PredictBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.svc.PredictBills(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("bills", bills))
}
