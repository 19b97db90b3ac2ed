package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/service"
)

// ============================================================
// Alerts
// ============================================================

func listAlertsHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/alerts")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		unackedOnly := r.URL.Query().Get("unacked") == "true"

		alerts, err := svc.ListAlerts(ctx, companyID, unackedOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

func createAlertHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/alerts")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")

		var req domain.AlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		alert, err := svc.CreateAlert(ctx, companyID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, alert)
	}
}

func ackAlertHandler(svc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/alerts/{alertId}/ack")
		defer span.End()

		alertID := chi.URLParam(r, "alertId")
		if err := svc.AcknowledgeAlert(ctx, alertID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "alert acknowledged"})
	}
}
