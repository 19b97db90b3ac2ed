package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/service"
)

// ============================================================
// Dashboard & generation metrics
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/dashboard")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		dash, err := svc.GetDashboard(ctx, companyID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func generationMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/generation")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetGenerationSnapshot())
	}
}
