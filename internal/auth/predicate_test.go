package auth

import "testing"

func TestAnyOf(t *testing.T) {
	cases := []struct {
		name string
		have []string
		want []string
		ok   bool
	}{
		{"overlap of one grants", []string{"a", "b"}, []string{"b", "c"}, true},
		{"no overlap denies", []string{"a", "b"}, []string{"c", "d"}, false},
		{"empty requirement grants", []string{"a"}, nil, true},
		{"empty holdings deny", nil, []string{"a"}, false},
		{"both empty grants", nil, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnyOf(tc.have, tc.want); got != tc.ok {
				t.Fatalf("AnyOf(%v, %v) = %v, want %v", tc.have, tc.want, got, tc.ok)
			}
		})
	}
}

func TestAllOf(t *testing.T) {
	cases := []struct {
		name string
		have []string
		want []string
		ok   bool
	}{
		{"partial coverage denies", []string{"a", "b"}, []string{"a", "c"}, false},
		{"full coverage grants", []string{"a", "b", "c"}, []string{"a", "c"}, true},
		{"exact coverage grants", []string{"a", "c"}, []string{"a", "c"}, true},
		{"empty requirement grants", nil, nil, true},
		{"empty holdings deny", nil, []string{"a"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllOf(tc.have, tc.want); got != tc.ok {
				t.Fatalf("AllOf(%v, %v) = %v, want %v", tc.have, tc.want, got, tc.ok)
			}
		})
	}
}

func TestIdentityPredicates(t *testing.T) {
	id := Identity{SubjectID: "u1", Username: "admin", Role: "admin", Permissions: []string{"user.read", "user.write"}}

	if !id.HasRole("admin") {
		t.Fatal("expected role match")
	}
	if id.HasRole("user") {
		t.Fatal("role comparison must be exact, no hierarchy")
	}
	if !id.HasPermission("user.read") {
		t.Fatal("expected permission match")
	}
	if id.HasPermission("user.delete") {
		t.Fatal("unexpected permission match")
	}
	if !id.CanAccess([]string{"user.write", "billing.read"}) {
		t.Fatal("any-of evaluation should grant on single overlap")
	}
	if id.CanAccess([]string{"billing.read"}) {
		t.Fatal("any-of evaluation should deny without overlap")
	}
}
