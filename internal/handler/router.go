// Package handler wires the HTTP surface of the treasury service:
// routing, request decoding, auth middleware and error mapping.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/infra/observability"
	"github.com/nordvik/treasury-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	recSvc *service.RecurrenceService,
	treasurySvc *service.TreasuryService,
	dashSvc *service.DashboardService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(treasurySvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Authentication
		// =============================================
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		// =============================================
		// Read surface
		// =============================================
		r.Get("/companies/{companyId}/accounts", listAccountsHandler(treasurySvc, logger))
		r.Get("/companies/{companyId}/accounts/{accountId}", getAccountHandler(treasurySvc, logger))
		r.Get("/companies/{companyId}/credit-lines", listCreditLinesHandler(treasurySvc, logger))
		r.Get("/companies/{companyId}/transactions", listTransactionsHandler(treasurySvc, logger))
		r.Get("/companies/{companyId}/recurrences", listTemplatesHandler(recSvc, logger))
		r.Get("/companies/{companyId}/recurrences/{templateId}", getTemplateHandler(recSvc, logger))
		r.Get("/companies/{companyId}/alerts", listAlertsHandler(treasurySvc, logger))
		r.Get("/companies/{companyId}/dashboard", dashboardHandler(dashSvc, logger))
		r.Get("/metrics/generation", generationMetricsHandler(metrics, logger))

		// =============================================
		// Mutating surface (authenticated)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Post("/companies/{companyId}/transactions", createTransactionHandler(treasurySvc, logger))
			r.Post("/companies/{companyId}/recurrences", createTemplateHandler(recSvc, logger))
			r.Post("/companies/{companyId}/recurrences/{templateId}/pause", templateStatusHandler(recSvc, "paused", logger))
			r.Post("/companies/{companyId}/recurrences/{templateId}/resume", templateStatusHandler(recSvc, "active", logger))
			r.Post("/companies/{companyId}/recurrences/{templateId}/end", templateStatusHandler(recSvc, "ended", logger))
			r.Post("/recurrences/regenerate", regenerateHandler(recSvc, logger))
			r.Post("/companies/{companyId}/alerts", createAlertHandler(treasurySvc, logger))
			r.Post("/companies/{companyId}/alerts/{alertId}/ack", ackAlertHandler(treasurySvc, logger))
		})
	})

	return r
}

// healthzHandler reports liveness plus a shallow store probe.
func healthzHandler(treasurySvc *service.TreasuryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		storeStatus := "healthy"

		start := time.Now()
		if treasurySvc != nil {
			if _, err := treasurySvc.ListAccounts(r.Context(), "health-check"); err != nil {
				storeStatus = "degraded"
				status = "degraded"
				logger.Warn("healthz: store probe failed", zap.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": status,
			"services": map[string]any{
				"store": map[string]any{
					"status":     storeStatus,
					"latency_ms": time.Since(start).Milliseconds(),
				},
			},
			"checked_at": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
