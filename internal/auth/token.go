package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer   = "sismakel"
	defaultTokenTTL = 24 * time.Hour

	// defaultLeeway absorbs small clock differences between the issuing
	// process and verifiers when checking exp/iat.
	defaultLeeway = 60 * time.Second
)

// Claims is the JWT payload carried by session tokens. Field names are fixed
// for interoperability with API clients; the permission list is optional and
// an absent claim is treated as an empty set.
type Claims struct {
	Username   string   `json:"username"`
	Role       string   `json:"role"`
	Permission []string `json:"permission,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens with a process-wide
// secret injected at construction time. The secret is immutable afterwards;
// rotating it invalidates every outstanding token.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithLeeway overrides the clock-skew tolerance applied during verification.
func WithLeeway(leeway time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if leeway >= 0 {
			t.leeway = leeway
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokenIssuer constructs a TokenIssuer for the given signing secret.
func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	issuer := &TokenIssuer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		leeway: defaultLeeway,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token carrying the identity snapshot. The token is immutable
// once issued and expires after the configured TTL.
func (t *TokenIssuer) Issue(identity Identity) (string, time.Time, error) {
	subject := strings.TrimSpace(identity.SubjectID)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: subject id is required")
	}
	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Username:   identity.Username,
		Role:       identity.Role,
		Permission: identity.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and time bounds of a token and returns the
// embedded identity. Failures are reported with distinguishable kinds
// (ErrTokenExpired, ErrTokenSignature, ErrTokenMalformed).
func (t *TokenIssuer) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(t.leeway),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Identity{}, classifyTokenError(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Username) == "" {
		return Identity{}, ErrTokenMalformed
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return Identity{}, ErrTokenMalformed
	}
	return Identity{
		SubjectID:   claims.Subject,
		Username:    claims.Username,
		Role:        claims.Role,
		Permissions: claims.Permission,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
