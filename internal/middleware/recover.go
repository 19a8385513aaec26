package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/logging"
)

// Recover turns a handler panic into a logged 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logging.FromContext(r.Context()).ErrorContext(r.Context(), "panic serving request",
					logging.FieldPath, r.URL.Path,
					logging.FieldError, fmt.Sprint(v),
					"stack", string(debug.Stack()))
				respond.Error(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
