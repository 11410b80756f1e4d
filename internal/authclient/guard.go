package authclient

import (
	"context"
	"net/url"
	"strings"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
)

// Route describes the access requirements a destination declares.
type Route struct {
	Path        string
	Public      bool
	Roles       []string
	Permissions []string
	// RequireAll switches the permission check from any-of to all-of.
	RequireAll bool
}

// Decision is the outcome of a navigation check.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionRedirectLogin
	DecisionDenied
)

// Navigation tells the caller where to send the user. RedirectTo is set for
// login and unauthorized redirects; Missing lists the unmet requirements for
// display on the unauthorized view.
type Navigation struct {
	Decision   Decision
	RedirectTo string
	Missing    []string
}

// RouteGuard intercepts navigations and enforces the declared requirements
// against the client's session state.
type RouteGuard struct {
	client           *Client
	loginPath        string
	unauthorizedPath string
}

func NewRouteGuard(client *Client) *RouteGuard {
	return &RouteGuard{
		client:           client,
		loginPath:        "/login",
		unauthorizedPath: "/unauthorized",
	}
}

// Check decides whether navigation to route may complete. Protected routes
// trigger a server-side session check before the local predicates run.
func (g *RouteGuard) Check(ctx context.Context, route Route) Navigation {
	if route.Public {
		return Navigation{Decision: DecisionAllow}
	}

	if g.client.State() == StateUninitialized {
		if err := g.client.Initialize(ctx); err != nil {
			return g.toLogin(route.Path)
		}
	}
	if g.client.State() != StateAuthenticated {
		return g.toLogin(route.Path)
	}

	// Re-validate against the server; a stale or revoked session must not
	// pass on locally cached state alone.
	identity, err := g.client.VerifyAuth(ctx)
	if err != nil {
		return g.toLogin(route.Path)
	}

	if missing := missingRequirements(identity, route); len(missing) > 0 {
		return Navigation{
			Decision:   DecisionDenied,
			RedirectTo: g.unauthorizedPath,
			Missing:    missing,
		}
	}
	return Navigation{Decision: DecisionAllow}
}

// toLogin builds a login redirect carrying the intended destination so a
// successful login can resume the navigation.
func (g *RouteGuard) toLogin(dest string) Navigation {
	redirect := g.loginPath
	if dest != "" && dest != g.loginPath {
		redirect += "?redirect=" + url.QueryEscape(dest)
	}
	return Navigation{Decision: DecisionRedirectLogin, RedirectTo: redirect}
}

func missingRequirements(identity auth.Identity, route Route) []string {
	var missing []string

	if len(route.Roles) > 0 {
		roleOK := false
		for _, role := range route.Roles {
			if identity.HasRole(role) {
				roleOK = true
				break
			}
		}
		if !roleOK {
			missing = append(missing, "role: "+strings.Join(route.Roles, "|"))
		}
	}

	if len(route.Permissions) > 0 {
		var permOK bool
		if route.RequireAll {
			permOK = auth.AllOf(identity.Permissions, route.Permissions)
		} else {
			permOK = auth.AnyOf(identity.Permissions, route.Permissions)
		}
		if !permOK {
			missing = append(missing, "permission: "+strings.Join(route.Permissions, "|"))
		}
	}
	return missing
}
