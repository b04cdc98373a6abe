// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., phase_locked, quota_exceeded) are reserved for
//     business outcomes that cannot be conveyed by status alone; each implies a
//     distinct corrective action for the caller.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exceeded",
//	  "message": "daily quota exceeded"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venturekit/go-venture-backend/internal/llm"
	"github.com/venturekit/go-venture-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodePhaseLocked         = "phase_locked"
	ErrCodeQuotaExceeded       = "quota_exceeded"
	ErrCodeVentureLimit        = "venture_limit_reached"
	ErrCodeInvalidArtifactType = "invalid_artifact_type"
	ErrCodeLlmUnavailable      = "llm_unavailable"
	ErrCodeLlmAuthError        = "llm_auth_error"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)

// failFromService translates a service-layer error into its HTTP status and
// stable code. Unmatched errors become 500 internal_error.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrVentureNotFound),
		errors.Is(err, services.ErrPhaseNotFound),
		errors.Is(err, services.ErrGateNotFound),
		errors.Is(err, services.ErrArtifactNotFound),
		errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrPhaseLocked):
		fail(c, http.StatusConflict, ErrCodePhaseLocked, err.Error())
	case errors.Is(err, services.ErrVentureLimit):
		fail(c, http.StatusConflict, ErrCodeVentureLimit, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		fail(c, http.StatusTooManyRequests, ErrCodeQuotaExceeded, err.Error())
	case errors.Is(err, services.ErrInvalidArtifactType):
		fail(c, http.StatusBadRequest, ErrCodeInvalidArtifactType, err.Error())
	case errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case llm.IsAuthError(err):
		fail(c, http.StatusBadGateway, ErrCodeLlmAuthError, "completion endpoint rejected credentials")
	case errors.Is(err, llm.ErrUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeLlmUnavailable, "completion endpoint unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
