package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// requireAuth rejects requests without a valid HS256 bearer token. It is a
// pass-through when no secret is configured.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(authSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			IncrementRejected("auth")
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := verifyToken(strings.TrimSpace(raw), authSecret); err != nil {
			IncrementRejected("auth")
			logger().Debug().Err(err).Msg("token rejected")
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func verifyToken(tokenString string, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
