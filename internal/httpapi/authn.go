package httpapi

import (
	"errors"
	"net/http"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
	"github.com/DaffafauzanD/Project-Sismakel/internal/obs"
)

var publicPaths = []string{
	"/api/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth authenticates every non-public request and attaches the resolved
// identity to the request context. Authorization happens separately in the
// Require* guards.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := tokenFromRequest(r)
		if !ok {
			obs.CountTokenRejection("missing")
			unauthorized(w, r, "authentication required")
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			obs.CountTokenRejection(tokenRejectionKind(err))
			unauthorized(w, r, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRole guards a handler behind an exact role match.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, r, "authentication required")
				return
			}
			if !identity.HasRole(role) {
				forbidden(w, r, "role "+role+" required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissions grants access when the identity holds at least one of
// the listed permissions.
func RequirePermissions(perms ...string) func(http.Handler) http.Handler {
	return requirePermissions(auth.AnyOf, perms)
}

// RequireAllPermissions grants access only when the identity holds every
// listed permission.
func RequireAllPermissions(perms ...string) func(http.Handler) http.Handler {
	return requirePermissions(auth.AllOf, perms)
}

func requirePermissions(eval func(have, want []string) bool, perms []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, r, "authentication required")
				return
			}
			if !eval(identity.Permissions, perms) {
				forbidden(w, r, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ensurePermissions is the inline variant used by handlers that dispatch on
// method before authorizing. Any-of semantics.
func (a *API) ensurePermissions(w http.ResponseWriter, r *http.Request, perms ...string) bool {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return false
	}
	if !auth.AnyOf(identity.Permissions, perms) {
		forbidden(w, r, "insufficient permissions")
		return false
	}
	return true
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="sismakel"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="sismakel", error="insufficient_scope"`)
	writeError(w, r, http.StatusForbidden, msg)
}

func tokenRejectionKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
