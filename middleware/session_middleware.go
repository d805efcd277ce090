package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-meet/models"
	"go-meet/utils/errors"
)

// SessionResolver maps a bearer token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.User, error)
}

type userKey struct{}

// SessionMiddleware rejects requests without a valid bearer token and stores
// the resolved user in the request context.
func SessionMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, errors.ErrUnauthenticated)
				return
			}
			user, err := sessions.Resolve(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user resolved by SessionMiddleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}
