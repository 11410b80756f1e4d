// Package authclient is the consumer-side counterpart of the auth API: it
// keeps a local authentication state machine in sync with the server and
// feeds the route guard.
package authclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
)

// State is the client-side authentication lifecycle phase.
type State int

const (
	StateUninitialized State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// ErrLoginInFlight reports a login attempt while another one is still
// awaiting the server round trip.
var ErrLoginInFlight = errors.New("login already in progress")

// TokenStore persists the token across client restarts. Implementations may
// be backed by a file, keychain or anything else.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Client talks to the auth API and tracks the resulting session state.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	now     func() time.Time

	mu            sync.Mutex
	state         State
	identity      auth.Identity
	token         string
	lastError     string
	loginInFlight bool
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. A cookie jar is
// attached when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore enables token persistence across restarts.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		state:   StateUninitialized,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// State returns the current lifecycle phase.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the locally held identity. Only meaningful while
// authenticated.
func (c *Client) Identity() (auth.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.state == StateAuthenticated
}

// Token returns the raw access token for Authorization headers.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// LastError returns the message recorded by the most recent failed login.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Initialize moves the client out of the uninitialized state. A persisted
// token that has not locally expired yields an optimistic authenticated
// state; the next VerifyAuth round trip settles it authoritatively.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	var token string
	if c.store != nil {
		stored, err := c.store.Load()
		if err == nil {
			token = stored
		}
	}
	if token == "" || c.locallyExpired(token) {
		c.purge(StateUnauthenticated, "")
		return nil
	}

	c.mu.Lock()
	c.token = token
	c.state = StateAuthenticated
	c.mu.Unlock()

	// The persisted token carries no identity; fetch it from the server.
	if _, err := c.VerifyAuth(ctx); err != nil {
		return nil
	}
	return nil
}

// Login authenticates against the server. Concurrent calls are collapsed:
// while one round trip is in flight, further attempts fail fast.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	c.mu.Lock()
	if c.loginInFlight {
		c.mu.Unlock()
		return auth.Identity{}, ErrLoginInFlight
	}
	c.loginInFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loginInFlight = false
		c.mu.Unlock()
	}()

	var payload struct {
		AccessToken string        `json:"access_token"`
		User        auth.Identity `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &payload)
	if err != nil {
		c.mu.Lock()
		if c.state == StateUninitialized {
			c.state = StateUnauthenticated
		}
		c.lastError = err.Error()
		c.mu.Unlock()
		return auth.Identity{}, err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.identity = payload.User
	c.token = payload.AccessToken
	c.lastError = ""
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Save(payload.AccessToken)
	}
	return payload.User, nil
}

// Logout asks the server to clear the session cookie, then drops local state
// regardless of the outcome of that call.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	c.purge(StateUnauthenticated, "")
	return err
}

// VerifyAuth re-validates the session against the server and refreshes the
// locally held identity. Any failure clears local credential material.
func (c *Client) VerifyAuth(ctx context.Context) (auth.Identity, error) {
	var payload struct {
		Valid bool          `json:"valid"`
		User  auth.Identity `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/verify", nil, &payload); err != nil {
		c.purge(StateUnauthenticated, "")
		return auth.Identity{}, err
	}
	if !payload.Valid {
		c.purge(StateUnauthenticated, "")
		return auth.Identity{}, errors.New("server rejected session")
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.identity = payload.User
	c.mu.Unlock()
	return payload.User, nil
}

// Profile fetches the current user from the server.
func (c *Client) Profile(ctx context.Context) (auth.Identity, error) {
	var payload struct {
		User auth.Identity `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/profile", nil, &payload); err != nil {
		return auth.Identity{}, err
	}
	return payload.User, nil
}

// purge drops all local credential material. lastError replaces any earlier
// recorded failure so it always describes the current session.
func (c *Client) purge(state State, lastError string) {
	c.mu.Lock()
	c.state = state
	c.identity = auth.Identity{}
	c.token = ""
	c.lastError = lastError
	c.mu.Unlock()
	if c.store != nil {
		_ = c.store.Clear()
	}
}

// APIError is a non-2xx response decoded from the uniform error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string   `json:"message"`
			Errors  []string `json:"errors"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil {
			apiErr.Message = envelope.Message
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// locallyExpired checks the exp claim without verifying the signature. This
// is only a fast-path filter for startup; the server remains authoritative.
func (c *Client) locallyExpired(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return true
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return true
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil || claims.Exp == 0 {
		return true
	}
	return c.now().Unix() >= claims.Exp
}
