package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
// Implementations return ErrNotFound for missing records and ErrConflict for
// uniqueness violations.
type Store interface {
	// FindUserByUsername is the login lookup. The returned record includes
	// the stored password hash; it must not escape this package.
	FindUserByUsername(ctx context.Context, username string) (User, error)

	// GetRole and RolePermissions back role/permission resolution.
	// RolePermissions returns the flattened permission names granted to the
	// role through the role_permissions join.
	GetRole(ctx context.Context, roleID string) (Role, error)
	RolePermissions(ctx context.Context, roleID string) ([]string, error)

	CreateUser(ctx context.Context, username, passwordHash, roleID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	UpdateUser(ctx context.Context, userID string, upd UserUpdate) (User, error)
	DeleteUser(ctx context.Context, userID string) error

	ListRoles(ctx context.Context) ([]RoleWithPermissions, error)
}
