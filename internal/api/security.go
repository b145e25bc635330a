package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// userKey carries the authenticated user ID through the request context.
var userKey contextKey

// UserFromContext returns the authenticated user ID set by RequireUser.
func UserFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userKey).(int64)
	return id, ok
}

// RequireUser validates the bearer token and injects the user ID into the
// request context. Tokens are HS256 with a numeric user_id claim; anything
// else is a 401. Issuing tokens is out of scope here.
func RequireUser(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := parseUserToken(secret, r.Header.Get("Authorization"))
			if err != nil {
				message(w, http.StatusUnauthorized, "authentication required", "")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseUserToken(secret []byte, header string) (int64, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return 0, errors.New("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return 0, errors.Wrap(err, "parse token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("unexpected claims type")
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("missing user_id claim")
	}
	return int64(id), nil
}
