package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
)

// ListInsights handles GET /api/users/{userID}/insights.
func (h *Handler) ListInsights(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListInsights(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("insights", list))
}

// MarkInsightRead handles POST /api/users/{userID}/insights/{insightID}/read.
func (h *Handler) MarkInsightRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkInsightRead(r.Context(), r.PathValue("userID"), r.PathValue("insightID")); err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteInsight handles DELETE /api/users/{userID}/insights/{insightID}.
func (h *Handler) DeleteInsight(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInsight(r.Context(), r.PathValue("userID"), r.PathValue("insightID")); err != nil {
		h.writeServiceError(w, r, err, MsgUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
