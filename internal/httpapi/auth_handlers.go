package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/DaffafauzanD/Project-Sismakel/internal/audit"
	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	User        auth.Identity `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "validation failed", "username is required", "password is required")
		return
	}

	result, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			a.audit(r.Context(), "auth.login.rejected", map[string]any{"username": req.Username})
			writeError(w, r, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	a.setSessionCookie(w, result.Token, result.ExpiresAt)
	a.audit(r.Context(), "auth.login.success", map[string]any{
		"user_id":  result.Identity.SubjectID,
		"username": result.Identity.Username,
		"role":     result.Identity.Role,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		User:        result.Identity,
	})
}

// handleLogout clears the session cookies. Issued tokens stay valid until
// expiry; there is no server-side revocation list.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	a.clearSessionCookie(w)
	a.audit(r.Context(), "auth.logout", map[string]any{"user_id": identity.SubjectID})
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": identity})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  identity,
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	if rid := RequestIDFromContext(ctx); rid != "" {
		ctx = audit.WithRequestID(ctx, rid)
	}
	_ = audit.LogEvent(ctx, event, fields)
}
