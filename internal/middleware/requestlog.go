package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/rideledger/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger assigns a request id, stores a request-scoped logger in the
// context and logs request completion at a level derived from the status.
func RequestLogger(base *logging.Logger, ips *IPResolver) func(http.Handler) http.Handler {
	httpLog := base.WithComponent(logging.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLog := httpLog.With(logging.FieldRequestID, requestID)
			ctx := logging.IntoContext(r.Context(), reqLog)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			reqLog.Log(ctx, level, "http request completed",
				logging.FieldMethod, r.Method,
				logging.FieldPath, r.URL.Path,
				logging.FieldQuery, r.URL.RawQuery,
				logging.FieldStatusCode, rec.status,
				logging.FieldDuration, time.Since(start).Milliseconds(),
				logging.FieldClientIP, ips.ClientIP(r),
				logging.FieldUserAgent, r.UserAgent(),
			)
		})
	}
}
