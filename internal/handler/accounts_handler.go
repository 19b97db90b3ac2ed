package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/service"
)

// ============================================================
// Accounts & credit lines
// ============================================================

func listAccountsHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/accounts")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		accounts, err := svc.ListAccounts(ctx, companyID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func getAccountHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/accounts/{accountId}")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		accountID := chi.URLParam(r, "accountId")

		account, err := svc.GetAccount(ctx, companyID, accountID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func listCreditLinesHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/credit-lines")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		lines, err := svc.ListCreditLines(ctx, companyID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lines)
	}
}
