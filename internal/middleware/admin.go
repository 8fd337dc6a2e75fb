package middleware

import (
	"context"
	"net/http"
)

// AdminChecker reports whether a user may reach the admin surface.
// Satisfied by the user store's is_admin lookup.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin must run inside Auth: it reads the user id Auth put on
// the request context.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				return
			}
			isAdmin, err := checker.IsAdmin(r.Context(), userID)
			if err != nil {
				reject(w, http.StatusInternalServerError, "INTERNAL", "unable to verify admin")
				return
			}
			if !isAdmin {
				reject(w, http.StatusForbidden, "FORBIDDEN", "admin privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
