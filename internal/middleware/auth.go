package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/rideledger/internal/auth"
	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
)

// UserResolver turns a bearer token into an active user.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (models.User, error)
}

// Authenticate requires a bearer token. A missing or malformed Authorization
// header is rejected with 403 before the token is inspected; a token that does
// not resolve to an active user is answered by the resolver's error.
func Authenticate(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, http.StatusForbidden, "not authenticated")
				return
			}
			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				respond.FromError(w, r, err)
				return
			}
			ctx := auth.WithUser(r.Context(), user)
			ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With(logging.FieldUserID, user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
