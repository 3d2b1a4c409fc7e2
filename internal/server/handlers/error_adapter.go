package handlers

import (
	"net/http"

	apperrors "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/errors"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/server/middleware"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/sandbox"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// adaptError maps a domain error to an HTTP status and error code.
func adaptError(err error) (int, string) {
	switch {
	case worklist.IsNotFound(err):
		return http.StatusNotFound, apperrors.CodeNotFound
	case worklist.IsInvalidFormat(err):
		return http.StatusUnprocessableEntity, apperrors.CodeInvalidFormat
	case worklist.IsAlreadyExists(err):
		return http.StatusConflict, apperrors.CodeAlreadyExists
	case sandbox.IsOutOfBounds(err):
		return http.StatusForbidden, apperrors.CodeOutOfBounds
	default:
		return http.StatusInternalServerError, apperrors.CodeInternal
	}
}

// writeDomainError renders err with the standard envelope.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := adaptError(err)
	apperrors.WriteError(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
}

// writeValidationError renders a 400 with the validation code.
func writeValidationError(w http.ResponseWriter, r *http.Request, message string) {
	apperrors.WriteError(w, http.StatusBadRequest, apperrors.CodeValidation, message,
		middleware.GetRequestID(r.Context()))
}
