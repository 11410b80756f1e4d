package auth

// Built-in permission names seeded by migrations and referenced by endpoint
// guards.
const (
	PermissionUserRead  = "user.read"
	PermissionUserWrite = "user.write"
)

// DefaultRoleName is assigned when role resolution degrades (see Service).
const DefaultRoleName = "user"
