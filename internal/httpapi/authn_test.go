package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withIdentity(req *http.Request, id auth.Identity) *http.Request {
	return req.WithContext(auth.ContextWithIdentity(req.Context(), id))
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	handler := RequireRole("admin")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = withIdentity(req, auth.Identity{SubjectID: "user-1", Role: "admin"})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleRejectsMismatchedRole(t *testing.T) {
	handler := RequireRole("admin")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = withIdentity(req, auth.Identity{SubjectID: "user-1", Role: "user"})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	handler := RequireRole("admin")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequirePermissionsAnyOf(t *testing.T) {
	handler := RequirePermissions("b", "c")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = withIdentity(req, auth.Identity{SubjectID: "user-1", Permissions: []string{"a", "b"}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on any-of overlap, got %d", rr.Code)
	}
}

func TestRequireAllPermissionsRejectsPartial(t *testing.T) {
	handler := RequireAllPermissions("a", "c")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = withIdentity(req, auth.Identity{SubjectID: "user-1", Permissions: []string{"a", "b"}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on partial all-of coverage, got %d", rr.Code)
	}
}

func TestTokenFromRequestPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})

	token, ok := tokenFromRequest(req)
	if !ok || token != "header-token" {
		t.Fatalf("expected header token, got %q ok=%v", token, ok)
	}
}

func TestTokenFromRequestFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})

	token, ok := tokenFromRequest(req)
	if !ok || token != "cookie-token" {
		t.Fatalf("expected cookie token, got %q ok=%v", token, ok)
	}
}

func TestTokenFromRequestRejectsBadScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})

	// A present but non-bearer header wins over the cookie and fails.
	if _, ok := tokenFromRequest(req); ok {
		t.Fatal("expected extraction failure for non-bearer scheme")
	}
}
