package auth

import (
	"net/http"
)

// AdminOnly gates an endpoint on the is_admin claim of the access token. It
// must run after the Verifier/Authenticator middleware.
func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			isAdmin, err := IsAdminFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if !isAdmin {
				http.Error(w, "admin privileges required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
