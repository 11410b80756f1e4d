package auth

import "strings"

// AnyOf reports whether have contains at least one element of want.
// An empty want set imposes no requirement and always passes. This is the
// single predicate shared by the server-side guard and the client-side route
// guard so the two evaluators cannot diverge.
func AnyOf(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := toSet(have)
	for _, w := range want {
		if _, ok := set[strings.TrimSpace(w)]; ok {
			return true
		}
	}
	return false
}

// AllOf reports whether have contains every element of want.
// An empty want set always passes.
func AllOf(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := toSet(have)
	for _, w := range want {
		if _, ok := set[strings.TrimSpace(w)]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role string) bool {
	role = strings.TrimSpace(role)
	return role != "" && id.Role == role
}

// HasPermission reports whether the identity carries the given permission.
func (id Identity) HasPermission(name string) bool {
	return AnyOf(id.Permissions, []string{name})
}

// CanAccess applies the default any-of policy over required permissions.
func (id Identity) CanAccess(required []string) bool {
	return AnyOf(id.Permissions, required)
}
