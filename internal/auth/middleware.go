package auth

import (
	"encoding/json"
	"net/http"

	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
)

// RequirePermission gates a route on the permission table rather than a
// role list, so route guards follow RolePermissions instead of
// hard-coding role names at every mount.
func RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := sharedauth.GetActor(r.Context())
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !Authorize(Role(actor.Role), perm) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
