// Package middleware provides request ID propagation and panic recovery
// for the HTTP surface.
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/errors"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID ensures every request carries a correlation ID.
//
// An incoming X-Request-ID header is honored; otherwise a UUID is
// generated. The ID is stored on the request context and echoed in the
// response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the correlation ID from ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Recovery converts panics into 500 responses with the standard error
// envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				apperrors.WriteError(w, http.StatusInternalServerError,
					apperrors.CodeInternal,
					fmt.Sprintf("panic: %v", rec),
					GetRequestID(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
