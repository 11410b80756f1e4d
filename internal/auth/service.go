package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DaffafauzanD/Project-Sismakel/internal/obs"
)

// dummyHash is compared against when the username lookup misses so that the
// failure path costs one bcrypt comparison either way. Unknown usernames and
// wrong passwords must stay indistinguishable to callers.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service implements login, token verification and user/role administration
// on top of a Store and a TokenIssuer.
type Service struct {
	store  Store
	tokens *TokenIssuer
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, tokens *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TokenTTL exposes the configured token lifetime for cookie max-age.
func (s *Service) TokenTTL() time.Duration { return s.tokens.TTL() }

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// Login authenticates credentials and issues a session token carrying the
// resolved identity snapshot. Both unknown usernames and password mismatches
// fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		obs.CountLogin("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison so the miss is not cheaper than a mismatch.
			_ = VerifyPassword(dummyHash, password)
			obs.CountLogin("invalid_credentials")
			return LoginResult{}, ErrInvalidCredentials
		}
		obs.CountLogin("error")
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		obs.CountLogin("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	identity := s.resolveIdentity(ctx, user)
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		obs.CountLogin("error")
		return LoginResult{}, err
	}
	obs.CountLogin("success")
	return LoginResult{Token: token, ExpiresAt: expiresAt, Identity: identity}, nil
}

// Authenticate verifies a session token and returns the identity embedded in
// it. Verification is stateless: permissions come from the token snapshot,
// not from a per-request store lookup.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	return s.tokens.Verify(token)
}

// resolveIdentity materializes the role name and flattened permission set for
// a user. Resolution failures degrade instead of failing login: the role
// falls back to DefaultRoleName and permissions to the empty set. Each
// degrade is counted and logged so the soft-fail stays observable.
func (s *Service) resolveIdentity(ctx context.Context, user User) Identity {
	identity := Identity{
		SubjectID: user.ID,
		Username:  user.Username,
	}

	role, err := s.store.GetRole(ctx, user.RoleID)
	if err != nil || strings.TrimSpace(role.Name) == "" {
		identity.Role = DefaultRoleName
		s.logDegrade(user, "role", err)
	} else {
		identity.Role = role.Name
	}

	perms, err := s.store.RolePermissions(ctx, user.RoleID)
	if err != nil {
		identity.Permissions = nil
		s.logDegrade(user, "permissions", err)
	} else {
		identity.Permissions = normalizePermissions(perms)
	}
	return identity
}

func (s *Service) logDegrade(user User, what string, err error) {
	obs.CountResolverDegrade()
	entry := map[string]any{
		"ts":      s.now().UTC().Format(time.RFC3339Nano),
		"level":   "warn",
		"msg":     "auth_resolution_degraded",
		"what":    what,
		"user_id": user.ID,
		"role_id": user.RoleID,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	obs.LogRequest(entry)
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	result := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	sort.Strings(result)
	if len(result) == 0 {
		return nil
	}
	return result
}

// User administration ------------------------------------------------------

// CreateUser validates input, hashes the password and stores the record.
func (s *Service) CreateUser(ctx context.Context, username, password, roleID string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return User{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, username, hash, roleID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UpdateUser(ctx context.Context, userID string, upd UserUpdate) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if trimmed == "" {
			return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
		}
		upd.Username = &trimmed
	}
	if upd.Password != nil {
		pw := strings.TrimSpace(*upd.Password)
		if pw == "" {
			return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(pw)
		if err != nil {
			return User{}, err
		}
		upd.Password = &hash
	}
	if upd.RoleID != nil {
		roleID := strings.TrimSpace(*upd.RoleID)
		if roleID == "" {
			return User{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
		}
		upd.RoleID = &roleID
	}
	return s.store.UpdateUser(ctx, userID, upd)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, userID)
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleWithPermissions, error) {
	return s.store.ListRoles(ctx)
}
