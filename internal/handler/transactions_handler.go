package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/service"
)

// ============================================================
// Transactions
// ============================================================

func listTransactionsHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/transactions")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		txns, err := svc.ListTransactions(ctx, companyID, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txns)
	}
}

// createTransactionResponse wraps the created entry with the outcome of
// the recurrence generation triggered alongside it, if any.
type createTransactionResponse struct {
	Transaction *domain.Transaction    `json:"transaction"`
	Generation  *domain.GenerateResult `json:"generation,omitempty"`
}

func createTransactionHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/transactions")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		var req domain.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ownerID := UserIDFromContext(ctx)
		txn, gen, err := svc.CreateTransaction(ctx, companyID, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, createTransactionResponse{
			Transaction: txn,
			Generation:  gen,
		})
	}
}
