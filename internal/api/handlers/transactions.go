package handlers

import (
	"net/http"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// ListTransactions handles GET /api/users/{userID}/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context(), r.PathValue("userID"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse("transactions", txs))
}

// CreateTransaction handles POST /api/users/{userID}/transactions. The
// transaction is categorized when no category is given and checked for
// fraud before it is stored.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := decodeJSON(r, &tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx.UserID = r.PathValue("userID")

	res, err := h.svc.AddTransaction(r.Context(), tx)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to save transaction")
		return
	}

	h.log.Info().
		Str("user_id", tx.UserID).
		Str("transaction_id", res.Transaction.ID).
		Bool("fraud_flagged", res.FraudInsight != nil).
		Msg("Transaction created")
	middleware.WriteJSON(w, http.StatusCreated, res)
}

// UploadAttachment handles POST /api/users/{userID}/transactions/{txID}/attachment.
// The request body is the raw file.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	body := http.MaxBytesReader(w, r.Body, MaxAttachmentBytes)

	tx, err := h.svc.AttachFile(r.Context(), r.PathValue("userID"), r.PathValue("txID"), contentType, body)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to upload attachment")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}
