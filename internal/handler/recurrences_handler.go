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
// Recurrence templates
// ============================================================

func listTemplatesHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/recurrences")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		templates, err := svc.ListTemplates(ctx, companyID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, templates)
	}
}

func getTemplateHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/{companyId}/recurrences/{templateId}")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		templateID := chi.URLParam(r, "templateId")

		tpl, err := svc.GetTemplate(ctx, companyID, templateID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tpl)
	}
}

// createTemplateResponse wraps the created template with the result of
// its immediate generation pass.
type createTemplateResponse struct {
	Template   *domain.RecurrenceTemplate `json:"template"`
	Generation *domain.GenerateResult     `json:"generation"`
}

func createTemplateHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/recurrences")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		span.SetAttributes(attribute.String("company.id", companyID))

		var req domain.TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ownerID := UserIDFromContext(ctx)
		tpl, gen, err := svc.CreateTemplate(ctx, companyID, ownerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, createTemplateResponse{Template: tpl, Generation: gen})
	}
}

// templateStatusHandler drives pause/resume/end transitions.
func templateStatusHandler(svc *service.RecurrenceService, status string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/recurrences/{templateId}/status")
		defer span.End()

		companyID := chi.URLParam(r, "companyId")
		templateID := chi.URLParam(r, "templateId")
		span.SetAttributes(
			attribute.String("template.id", templateID),
			attribute.String("template.status", status),
		)

		if err := svc.SetTemplateStatus(ctx, companyID, templateID, status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "template " + status})
	}
}

type regenerateRequest struct {
	CompanyID   string `json:"company_id"`
	MonthsAhead int    `json:"months_ahead,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

// regenerateHandler is the interactive regeneration entry point. The
// company scope is required; runs are throttled per company unless
// force is set.
func regenerateHandler(svc *service.RecurrenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/recurrences/regenerate")
		defer span.End()

		var req regenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CompanyID == "" {
			req.CompanyID = CompanyIDFromContext(ctx)
		}
		if req.CompanyID == "" {
			writeError(w, http.StatusBadRequest, "company_id is required")
			return
		}
		span.SetAttributes(attribute.String("company.id", req.CompanyID), attribute.Bool("force", req.Force))

		summary, err := svc.RegenerateInteractive(ctx, req.CompanyID, req.MonthsAhead, req.Force)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
