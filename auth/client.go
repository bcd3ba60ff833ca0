// Package auth provides the PawPilot identity service client.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/pawpilot/pawpilot/sdk/go/headers"
	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

const (
	defaultUserAgent   = "PawPilotSDK/1"
	defaultRefreshSkew = 60 * time.Second
	defaultTokenTTL    = time.Hour
)

// ErrNoRefreshToken is returned by Credential when a user is signed in but the
// client holds nothing to mint a new id token with.
var ErrNoRefreshToken = errors.New("sdk/auth: no refresh token")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config controls how the client talks to the identity service.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
	// Store persists the signed-in identity and refresh token. Defaults to an
	// in-memory store.
	Store kvstore.Store
	// RefreshSkew is how long before expiry a cached id token stops being reused.
	RefreshSkew time.Duration
}

// Client signs users in and out and issues id tokens for the signed-in user.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	userAgent   string
	store       kvstore.Store
	refreshSkew time.Duration
	now         func() time.Time

	mu           sync.Mutex
	user         *Identity
	idToken      string
	expiresAt    time.Time
	refreshToken string

	refreshGroup singleflight.Group
	notify       *notifier
}

// Credentials encapsulates email/password inputs for sign-in and sign-up.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// FederatedRequest signs in with a token issued by an external provider.
type FederatedRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	IDToken    string `json:"id_token" validate:"required"`
	RequestURI string `json:"request_uri,omitempty" validate:"omitempty,url"`
}

// RefreshRequest wraps the token used during refresh.
type RefreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse mirrors the identity service response body.
type TokenResponse struct {
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *Identity `json:"user,omitempty"`
}

// Error conveys HTTP failures from the identity service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sdk/auth: http %d: %s: %s", e.Status, e.Code, strings.TrimSpace(e.Message))
	}
	return fmt.Sprintf("sdk/auth: http %d: %s", e.Status, strings.TrimSpace(e.Message))
}

// DisplayMessage is a message suitable for showing to the end user.
func (e Error) DisplayMessage() string {
	switch e.Code {
	case "EMAIL_EXISTS":
		return "An account with this email already exists."
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "Incorrect email or password."
	case "USER_DISABLED":
		return "This account has been disabled."
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "Too many attempts. Try again later."
	}
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return "Incorrect email or password."
	case e.Status >= 500:
		return "The sign-in service is unavailable. Try again later."
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return "Sign-in failed."
}

// NewClient constructs a Client and restores any persisted sign-in.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("sdk/auth: base url required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	store := cfg.Store
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	skew := cfg.RefreshSkew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	c := &Client{
		baseURL:     strings.TrimSuffix(base, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		httpClient:  httpClient,
		userAgent:   ua,
		store:       store,
		refreshSkew: skew,
		now:         time.Now,
		notify:      newNotifier(),
	}
	if err := c.restore(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Close stops identity change delivery.
func (c *Client) Close() {
	c.notify.close()
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("sdk/auth: %w", err)
	}
	tokens, err := c.post(ctx, routes.AccountsSignIn, creds)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, tokens, ProviderPassword)
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("sdk/auth: %w", err)
	}
	tokens, err := c.post(ctx, routes.AccountsSignUp, creds)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, tokens, ProviderPassword)
}

// SignInFederated signs in with an external provider's token.
func (c *Client) SignInFederated(ctx context.Context, req FederatedRequest) (*Identity, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("sdk/auth: %w", err)
	}
	tokens, err := c.post(ctx, routes.AccountsSignInWithIdp, req)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, tokens, ProviderFederated)
}

// SignOut forgets the signed-in user. Revoking the refresh token server-side
// is best effort; the local sign-out always happens.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	wasSignedIn := c.user != nil
	c.user = nil
	c.idToken = ""
	c.expiresAt = time.Time{}
	c.refreshToken = ""
	c.mu.Unlock()

	if rt != "" {
		_, _ = c.post(ctx, routes.AccountsSignOut, RefreshRequest{RefreshToken: rt})
	}

	var errs []error
	if err := c.store.Remove(ctx, kvstore.KeyIdentity); err != nil {
		errs = append(errs, err)
	}
	if err := c.store.Remove(ctx, kvstore.KeyRefreshToken); err != nil {
		errs = append(errs, err)
	}
	if wasSignedIn {
		c.notify.publish(nil)
	}
	return errors.Join(errs...)
}

// CurrentIdentity returns the signed-in user or nil.
func (c *Client) CurrentIdentity() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user.clone()
}

// Credential returns an id token for the signed-in user. A cached token is
// reused until it is within the refresh skew of expiring unless forceRefresh
// is set. With nobody signed in it returns "", nil.
func (c *Client) Credential(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	user := c.user
	tok := c.idToken
	exp := c.expiresAt
	rt := c.refreshToken
	c.mu.Unlock()

	if user == nil {
		return "", nil
	}
	if !forceRefresh && tok != "" && c.now().Add(c.refreshSkew).Before(exp) {
		return tok, nil
	}
	if rt == "" {
		return "", ErrNoRefreshToken
	}

	v, err, _ := c.refreshGroup.Do(rt, func() (any, error) {
		return c.refresh(ctx, rt)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// OnIdentityChange registers fn for sign-in/sign-out notifications. fn is
// called once with the current state shortly after registration. Calls are
// asynchronous and never overlap.
func (c *Client) OnIdentityChange(fn func(*Identity)) (unsubscribe func()) {
	return c.notify.subscribe(fn, c.CurrentIdentity())
}

func (c *Client) refresh(ctx context.Context, rt string) (string, error) {
	tokens, err := c.post(ctx, routes.Token, RefreshRequest{GrantType: "refresh_token", RefreshToken: rt})
	if err != nil {
		return "", err
	}
	if tokens.IDToken == "" {
		return "", errors.New("sdk/auth: refresh returned no id token")
	}

	newRT := tokens.RefreshToken
	if newRT == "" {
		newRT = rt
	}
	c.mu.Lock()
	if c.refreshToken != rt {
		// signed out or switched user while refreshing
		c.mu.Unlock()
		return "", errors.New("sdk/auth: session changed during refresh")
	}
	c.idToken = tokens.IDToken
	c.expiresAt = c.expiry(tokens)
	c.refreshToken = newRT
	c.mu.Unlock()

	if newRT != rt {
		if err := c.store.Set(ctx, kvstore.KeyRefreshToken, newRT); err != nil {
			return "", err
		}
	}
	return tokens.IDToken, nil
}

func (c *Client) establish(ctx context.Context, tokens TokenResponse, provider string) (*Identity, error) {
	user := tokens.User.clone()
	if user == nil || user.UID == "" {
		fromToken, ok := identityFromToken(tokens.IDToken)
		if !ok {
			return nil, errors.New("sdk/auth: response carried no user")
		}
		user = fromToken
	}
	if user.Provider == "" {
		user.Provider = provider
	}

	c.mu.Lock()
	c.user = user
	c.idToken = tokens.IDToken
	c.expiresAt = c.expiry(tokens)
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()

	encoded, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, kvstore.KeyIdentity, string(encoded)); err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, kvstore.KeyRefreshToken, tokens.RefreshToken); err != nil {
		return nil, err
	}

	c.notify.publish(user)
	return user.clone(), nil
}

func (c *Client) restore(ctx context.Context) error {
	raw, ok, err := c.store.Get(ctx, kvstore.KeyIdentity)
	if err != nil {
		return fmt.Errorf("sdk/auth: restore identity: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}
	var user Identity
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.UID == "" {
		// unreadable state is dropped rather than blocking startup
		_ = c.store.Remove(ctx, kvstore.KeyIdentity)
		return nil
	}
	rt, _, err := c.store.Get(ctx, kvstore.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("sdk/auth: restore refresh token: %w", err)
	}
	c.user = &user
	c.refreshToken = rt
	return nil
}

func (c *Client) expiry(tokens TokenResponse) time.Time {
	if exp, ok := expiryFromToken(tokens.IDToken); ok {
		return exp
	}
	if tokens.ExpiresIn > 0 {
		return c.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	return c.now().Add(defaultTokenTTL)
}

func (c *Client) post(ctx context.Context, path string, payload any) (TokenResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return TokenResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(headers.IdentityKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenResponse{}, err
	}
	if resp.StatusCode >= 400 {
		return TokenResponse{}, decodeError(resp.StatusCode, body)
	}

	var tokens TokenResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(body, &tokens); err != nil {
		return TokenResponse{}, err
	}
	return tokens, nil
}

func decodeError(status int, body []byte) Error {
	e := Error{Status: status, Message: string(body)}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && (payload.Error.Code != "" || payload.Error.Message != "") {
		e.Code = payload.Error.Code
		e.Message = payload.Error.Message
	}
	return e
}
