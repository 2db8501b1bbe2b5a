package authsdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// RefreshBuffer is how close to expiry an access token is refreshed before use.
const RefreshBuffer = 30 * time.Second

// Client is a stateful PetBook client. It holds at most one session and
// notifies listeners whenever that session changes.
type Client struct {
	SDK *SDKClient

	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	session  *Session
	identity *Identity

	// refreshMu serialises refresh grants so a rotated token is never reused.
	refreshMu sync.Mutex

	lmu       sync.Mutex
	listeners map[int]AuthListener
	nextID    int
}

func NewClient(baseURL string) *Client {
	return NewClientWithSDK(NewSDKClient(baseURL))
}

func NewClientWithSDK(sdk *SDKClient) *Client {
	return &Client{
		SDK:       sdk,
		Now:       time.Now,
		listeners: make(map[int]AuthListener),
	}
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Identity returns the signed-in account, or nil.
func (c *Client) Identity() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// OnAuthStateChange registers fn and returns a func that removes it.
func (c *Client) OnAuthStateChange(fn AuthListener) (unsubscribe func()) {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

func (c *Client) emit(ctx context.Context, event AuthEvent) {
	change := AuthChange{Event: event, Session: c.Session(), Identity: c.Identity()}

	c.lmu.Lock()
	fns := make([]AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.Unlock()

	for _, fn := range fns {
		fn(ctx, change)
	}
}

func (c *Client) set(s *Session, id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	if id != nil {
		c.identity = id
	}
}

func (c *Client) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.identity = nil
}

// adopt stores a token response as the current session, fetching the
// identity when the response does not carry it.
func (c *Client) adopt(ctx context.Context, tr *TokenResponse) (*Session, error) {
	sess := tr.Session(c.Now())
	c.set(sess, tr.User)
	if tr.User == nil {
		id, err := c.GetUser(ctx)
		if err != nil {
			c.clear()
			return nil, err
		}
		c.set(sess, id)
	}
	return c.Session(), nil
}

// ============================================================================
// Auth operations
// ============================================================================

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tr, err := c.SDK.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess, err := c.adopt(ctx, tr)
	if err != nil {
		return nil, err
	}
	c.emit(ctx, EventSignedIn)
	return sess, nil
}

// SignUp registers the account. A nil session with a nil error means the
// confirmation e-mail was sent.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if _, err := c.SDK.SignUp(ctx, in); err != nil {
		return nil, err
	}
	return nil, nil
}

func (c *Client) ConfirmEmail(ctx context.Context, token string) (*Session, error) {
	tr, err := c.SDK.ConfirmEmail(ctx, token)
	if err != nil {
		return nil, err
	}
	sess, err := c.adopt(ctx, tr)
	if err != nil {
		return nil, err
	}
	c.emit(ctx, EventSignedIn)
	return sess, nil
}

// SignOut revokes the refresh token. When revocation fails the local
// session is kept.
func (c *Client) SignOut(ctx context.Context) error {
	if s := c.Session(); s != nil && s.RefreshToken != "" {
		if err := c.SDK.RevokeToken(ctx, s.RefreshToken); err != nil {
			return err
		}
	}
	c.clear()
	c.emit(ctx, EventSignedOut)
	return nil
}

// RefreshSession rotates the refresh token.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Client) refreshLocked(ctx context.Context) (*Session, error) {
	cur := c.Session()
	if cur == nil || cur.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}

	tr, err := c.SDK.RefreshGrant(ctx, cur.RefreshToken)
	if err != nil {
		if KindOf(err) == KindInvalidCredentials {
			c.clear()
			c.emit(ctx, EventSignedOut)
		}
		return nil, err
	}

	sess, err := c.adopt(ctx, tr)
	if err != nil {
		return nil, err
	}
	c.emit(ctx, EventTokenRefreshed)
	return sess, nil
}

// RestoreSession adopts a previously persisted session, refreshing it if
// the access token is close to expiry.
func (c *Client) RestoreSession(ctx context.Context, s Session) (*Session, error) {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil, ErrNotSignedIn
	}

	c.set(&s, nil)
	if s.ExpiresWithin(c.Now(), RefreshBuffer) {
		c.refreshMu.Lock()
		_, err := c.refreshLocked(ctx)
		c.refreshMu.Unlock()
		if err != nil {
			c.clear()
			return nil, err
		}
	}

	id, err := c.GetUser(ctx)
	if err != nil {
		c.clear()
		return nil, err
	}
	c.set(c.Session(), id)
	c.emit(ctx, EventSignedIn)
	return c.Session(), nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.SDK.RecoverPassword(ctx, email)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	if err := c.sendAuth(ctx, http.MethodPut, "/v1/auth/password", UpdatePasswordRequest{Password: newPassword}, nil, http.StatusNoContent); err != nil {
		return err
	}
	c.emit(ctx, EventUserUpdated)
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	if err := c.sendAuth(ctx, http.MethodPatch, "/v1/profile", upd, nil, http.StatusOK); err != nil {
		return err
	}
	c.emit(ctx, EventUserUpdated)
	return nil
}

// GetUser returns the identity behind the current access token.
func (c *Client) GetUser(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := c.sendAuth(ctx, http.MethodGet, "/v1/auth/user", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile returns the signed-in user's profile. userID must be the
// current identity; the API only exposes one's own profile.
func (c *Client) GetProfile(ctx context.Context, userID string) (Profile, error) {
	if id := c.Identity(); id != nil && userID != "" && id.ID != userID {
		return Profile{}, &Error{Kind: KindForbidden, Message: "perfil de outro usuário"}
	}
	var out Profile
	if err := c.sendAuth(ctx, http.MethodGet, "/v1/profile", nil, &out, http.StatusOK); err != nil {
		return Profile{}, err
	}
	return out, nil
}

// ============================================================================
// Authenticated transport
// ============================================================================

// accessToken returns a usable access token, refreshing first when it is
// within RefreshBuffer of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	s := c.Session()
	if s == nil {
		return "", ErrNotSignedIn
	}
	if !s.ExpiresWithin(c.Now(), RefreshBuffer) {
		return s.AccessToken, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if s = c.Session(); s != nil && !s.ExpiresWithin(c.Now(), RefreshBuffer) {
		return s.AccessToken, nil
	}
	s, err := c.refreshLocked(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (c *Client) sendAuth(ctx context.Context, method, path string, payload, target any, expected int) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	resp, err := c.SDK.sendJSON(ctx, method, path, payload, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expected)
}
