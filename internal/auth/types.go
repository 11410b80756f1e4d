package auth

import "time"

// User is a stored credential record. PasswordHash never leaves this package:
// it is consumed during login and excluded from every serialized form.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role groups permissions.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is a fine-grained capability identified by a unique name.
type Permission struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoleWithPermissions is a role together with its flattened permission names.
type RoleWithPermissions struct {
	Role
	Permissions []string `json:"permissions"`
}

// Identity is the resolved (subject, username, role, permissions) tuple for an
// authenticated caller. The permission list is a snapshot taken at token
// issuance; it does not track later role changes until a new token is issued.
//
// JSON field names match the wire format consumed by API clients.
type Identity struct {
	SubjectID   string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permission,omitempty"`
}

// UserUpdate carries optional user mutations. Nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Password *string
	RoleID   *string
}
