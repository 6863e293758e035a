package httpapi

import (
	"net/http"
	"strings"

	"pennywise.org/internal/auth"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// protectedPrefixes require a valid access cookie. Everything else,
// including the auth endpoints themselves, is public.
var protectedPrefixes = []string{
	"/api/budgets",
	"/api/transactions",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || !isProtectedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(accessCookie)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		userID, err := a.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid access token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), userID)))
	})
}

func isProtectedPath(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// currentUser returns the authenticated user id. The authn middleware
// guarantees it is set on protected paths.
func currentUser(r *http.Request) string {
	userID, _ := auth.UserIDFromContext(r.Context())
	return userID
}
