package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var malformed *domain.ErrMalformedTemplate
	var rateLimited *domain.ErrRateLimited
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var forbidden *domain.ErrForbidden
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &malformed):
		logger.Warn("malformed template", zap.String("template_id", malformed.TemplateID), zap.String("reason", malformed.Reason))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &rateLimited):
		logger.Debug("rate limited", zap.String("operation", rateLimited.Operation))
		w.Header().Set("Retry-After", rateLimited.RetryIn)
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &external):
		logger.Error("store error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream store error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
