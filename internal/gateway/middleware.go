package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

type contextKey string

// identityContextKey carries the authenticated wallet identity through the
// request context
const identityContextKey contextKey = "wallet_identity"

// IdentityFromContext returns the authenticated identity of a request
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(types.Identity)
	return id, ok
}

// LoggingMiddleware logs every request with status and latency
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			log.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, recorder.status, time.Since(start).Milliseconds())
		})
	}
}

// MetricsMiddleware records request counters and latency histograms
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			metrics.RecordRequest(r.Method, r.URL.Path, recorder.status, time.Since(start))
		})
	}
}

// CORSMiddleware handles cross-origin requests from the presentation layer
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware validates the bearer token and stores the wallet identity
// in the request context
func AuthMiddleware(validator *TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Malformed Authorization header")
				return
			}

			identity, err := validator.Validate(parts[1])
			if err != nil {
				log.WithError(err).Warn("Rejected bearer token")
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
