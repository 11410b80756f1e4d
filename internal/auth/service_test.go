package auth

import (
	"context"
	"errors"
	"testing"
)

type stubStore struct {
	findUserFn    func(context.Context, string) (User, error)
	getRoleFn     func(context.Context, string) (Role, error)
	rolePermsFn   func(context.Context, string) ([]string, error)
	createUserFn  func(context.Context, string, string, string) (User, error)
	listUsersFn   func(context.Context) ([]User, error)
	getUserFn     func(context.Context, string) (User, error)
	updateUserFn  func(context.Context, string, UserUpdate) (User, error)
	deleteUserFn  func(context.Context, string) error
	listRolesFn   func(context.Context) ([]RoleWithPermissions, error)
}

func (s *stubStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	if s.findUserFn != nil {
		return s.findUserFn(ctx, username)
	}
	return User{}, ErrNotFound
}

func (s *stubStore) GetRole(ctx context.Context, roleID string) (Role, error) {
	if s.getRoleFn != nil {
		return s.getRoleFn(ctx, roleID)
	}
	return Role{}, ErrNotFound
}

func (s *stubStore) RolePermissions(ctx context.Context, roleID string) ([]string, error) {
	if s.rolePermsFn != nil {
		return s.rolePermsFn(ctx, roleID)
	}
	return nil, nil
}

func (s *stubStore) CreateUser(ctx context.Context, username, passwordHash, roleID string) (User, error) {
	if s.createUserFn != nil {
		return s.createUserFn(ctx, username, passwordHash, roleID)
	}
	return User{}, nil
}

func (s *stubStore) ListUsers(ctx context.Context) ([]User, error) {
	if s.listUsersFn != nil {
		return s.listUsersFn(ctx)
	}
	return nil, nil
}

func (s *stubStore) GetUser(ctx context.Context, userID string) (User, error) {
	if s.getUserFn != nil {
		return s.getUserFn(ctx, userID)
	}
	return User{}, ErrNotFound
}

func (s *stubStore) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (User, error) {
	if s.updateUserFn != nil {
		return s.updateUserFn(ctx, userID, upd)
	}
	return User{}, ErrNotFound
}

func (s *stubStore) DeleteUser(ctx context.Context, userID string) error {
	if s.deleteUserFn != nil {
		return s.deleteUserFn(ctx, userID)
	}
	return nil
}

func (s *stubStore) ListRoles(ctx context.Context) ([]RoleWithPermissions, error) {
	if s.listRolesFn != nil {
		return s.listRolesFn(ctx)
	}
	return nil, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	svc, err := NewService(store, issuer)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func adminCredentialStore(t *testing.T) *stubStore {
	t.Helper()
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &stubStore{
		findUserFn: func(_ context.Context, username string) (User, error) {
			if username != "admin" {
				return User{}, ErrNotFound
			}
			return User{ID: "user-1", Username: "admin", PasswordHash: hash, RoleID: "role-admin"}, nil
		},
		getRoleFn: func(_ context.Context, roleID string) (Role, error) {
			if roleID != "role-admin" {
				return Role{}, ErrNotFound
			}
			return Role{ID: roleID, Name: "admin"}, nil
		},
		rolePermsFn: func(_ context.Context, roleID string) ([]string, error) {
			return []string{"user.write", "user.read"}, nil
		},
	}
}

func TestLoginIssuesIdentitySnapshot(t *testing.T) {
	svc := newTestService(t, adminCredentialStore(t))

	result, err := svc.Login(context.Background(), "admin", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id := result.Identity
	if id.SubjectID != "user-1" || id.Username != "admin" || id.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if len(id.Permissions) != 2 || id.Permissions[0] != "user.read" || id.Permissions[1] != "user.write" {
		t.Fatalf("unexpected permissions: %v", id.Permissions)
	}

	// The token decodes back to the same identity.
	decoded, err := svc.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if decoded.SubjectID != id.SubjectID || decoded.Username != id.Username || decoded.Role != id.Role {
		t.Fatalf("token round trip lost identity: %+v", decoded)
	}
	if !AllOf(decoded.Permissions, id.Permissions) {
		t.Fatalf("token round trip lost permissions: %v", decoded.Permissions)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t, adminCredentialStore(t))

	_, unknownErr := svc.Login(context.Background(), "nobody", "password123")
	_, wrongPassErr := svc.Login(context.Background(), "admin", "wrong-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassErr)
	}
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("error messages differ: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginDegradesOnRoleResolutionFailure(t *testing.T) {
	store := adminCredentialStore(t)
	store.getRoleFn = func(context.Context, string) (Role, error) {
		return Role{}, errors.New("role table unavailable")
	}
	store.rolePermsFn = func(context.Context, string) ([]string, error) {
		return nil, errors.New("permission table unavailable")
	}
	svc := newTestService(t, store)

	// Login must still succeed, with degraded authorization.
	result, err := svc.Login(context.Background(), "admin", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Identity.Role != DefaultRoleName {
		t.Fatalf("expected fallback role %q, got %q", DefaultRoleName, result.Identity.Role)
	}
	if len(result.Identity.Permissions) != 0 {
		t.Fatalf("expected empty permission set, got %v", result.Identity.Permissions)
	}
}

func TestLoginDefaultsRoleNameWhenRoleMissing(t *testing.T) {
	store := adminCredentialStore(t)
	store.getRoleFn = func(context.Context, string) (Role, error) {
		return Role{}, ErrNotFound
	}
	svc := newTestService(t, store)

	result, err := svc.Login(context.Background(), "admin", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Identity.Role != "user" {
		t.Fatalf("expected default role, got %q", result.Identity.Role)
	}
	// Permission resolution still succeeded independently.
	if len(result.Identity.Permissions) != 2 {
		t.Fatalf("expected permissions despite role fallback, got %v", result.Identity.Permissions)
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	var storedHash string
	store := &stubStore{
		createUserFn: func(_ context.Context, username, passwordHash, roleID string) (User, error) {
			storedHash = passwordHash
			return User{ID: "user-9", Username: username, RoleID: roleID}, nil
		},
	}
	svc := newTestService(t, store)

	user, err := svc.CreateUser(context.Background(), " newuser ", "s3cret", "role-1")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "newuser" {
		t.Fatalf("expected trimmed username, got %q", user.Username)
	}
	if storedHash == "" || storedHash == "s3cret" {
		t.Fatalf("password was not hashed: %q", storedHash)
	}
	if err := VerifyPassword(storedHash, "s3cret"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestCreateUserValidatesInput(t *testing.T) {
	svc := newTestService(t, &stubStore{})

	if _, err := svc.CreateUser(context.Background(), "", "pw", "role-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty username, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), "u", "", "role-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), "u", "pw", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty role, got %v", err)
	}
}
