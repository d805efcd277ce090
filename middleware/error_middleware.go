package middleware

import (
	"encoding/json"
	"net/http"

	"go-meet/metrics"
	"go-meet/utils/errors"

	"go.uber.org/zap"
)

// ErrorMiddleware turns a panic in a handler into a 500 JSON response.
func ErrorMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rec), zap.String("method", r.Method), zap.String("path", r.URL.Path))
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON APIError. The outermost APIError in the chain
// decides the status; anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	resp := *apiErr

	if errors.Is(err, errors.ErrInvariantViolation) {
		metrics.InvariantViolation()
		zap.L().Error("invariant violation", zap.Error(err))
	}
	if resp.Status >= http.StatusInternalServerError {
		zap.L().Error("server error", zap.String("code", resp.Code), zap.Error(err))
	} else if err != error(apiErr) && resp.Details == "" {
		resp.Details = err.Error()
	}

	if errors.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
