package httpapi

import (
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookieName carries the access token for browser clients.
	SessionCookieName = "access_token"
	// DebugCookieName mirrors the token without HttpOnly so it can be read
	// from devtools. Never set in production.
	DebugCookieName = "access_token_debug"

	authHeader = "Authorization"
	bearer     = "Bearer "
)

func (a *API) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.isProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	if !a.isProduction() {
		http.SetCookie(w, &http.Cookie{
			Name:     DebugCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: false,
			Secure:   false,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// clearSessionCookie expires the session cookies. Attributes must match the
// ones used when setting, otherwise browsers keep the original cookie.
func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.isProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	if !a.isProduction() {
		http.SetCookie(w, &http.Cookie{
			Name:     DebugCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: false,
			Secure:   false,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// tokenFromRequest extracts the access token, preferring the Authorization
// header over the session cookie.
func tokenFromRequest(r *http.Request) (string, bool) {
	if header := strings.TrimSpace(r.Header.Get(authHeader)); header != "" {
		if strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
			if token := strings.TrimSpace(header[len(bearer):]); token != "" {
				return token, true
			}
		}
		return "", false
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
