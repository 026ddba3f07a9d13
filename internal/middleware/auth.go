package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/loyalty/internal/token"
)

// BearerAuth validates the access token and puts the user id into the context.
// The token comes from the Authorization header; the access_token query
// parameter is accepted as a fallback for WebSocket clients, which cannot set
// headers from the browser.
func BearerAuth(issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
				raw = strings.TrimSpace(h[len("bearer "):])
			}
			if raw == "" {
				raw = r.URL.Query().Get("access_token")
			}
			if raw == "" {
				unauthorized(w)
				return
			}
			userID, err := issuer.Parse(raw)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"unauthorized"}`))
}
