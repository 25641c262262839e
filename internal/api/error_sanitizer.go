package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/shipment-importer/internal/pkg/httputil"
	"github.com/ignite/shipment-importer/internal/pkg/logger"
	"github.com/ignite/shipment-importer/internal/service/shipimport"
	"github.com/ignite/shipment-importer/internal/service/templates"
)

// respondSafeError logs the internal error and sends a sanitized message.
// 5xx responses never carry err.Error().
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error("[api] request failed", "status", code, "message", publicMsg, "error", internalErr.Error())
	}
	httputil.Error(w, code, publicMsg)
}

// respondServiceError maps service sentinels to 4xx and everything else
// to a sanitized 5xx.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shipimport.ErrTooManyRows),
		errors.Is(err, shipimport.ErrMissingSender),
		errors.Is(err, templates.ErrInvalid):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, shipimport.ErrRunNotFound),
		errors.Is(err, templates.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, shipimport.ErrImportInProgress),
		errors.Is(err, templates.ErrDuplicateName):
		httputil.Error(w, http.StatusConflict, err.Error())
	default:
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
	}
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
func safeErrorMessage(internalErr error) string {
	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "reference data") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	default:
		return "An internal error occurred"
	}
}
