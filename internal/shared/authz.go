package shared

import (
	"net/http"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// RequireAuth rejects requests without an authenticated session. Every
// ledger mutation sits behind this guard so unauthenticated calls fail
// closed before any work happens.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
