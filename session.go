package sdk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pawpilot/pawpilot/sdk/go/auth"
	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
)

const defaultCredentialTimeout = 30 * time.Second

// SessionState is the resolution state of a Session.
type SessionState int

const (
	StateUnresolved SessionState = iota
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the signed-in identity and its credential.
type Session struct {
	Identity   *auth.Identity
	Credential string
	Loading    bool
}

// State derives the resolution state.
func (s Session) State() SessionState {
	switch {
	case s.Loading:
		return StateUnresolved
	case s.Identity != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Authorized reports whether the session holds a credential. A session
// without one is anonymous as far as request authorization goes.
func (s Session) Authorized() bool {
	return !s.Loading && s.Identity != nil && s.Credential != ""
}

type sessionListener struct {
	id int
	fn func(Session)
}

// SessionProvider owns the process-wide Session. It is the only writer of
// Session state; everything else reads snapshots.
type SessionProvider struct {
	identity          IdentityService
	store             kvstore.Store
	telemetry         TelemetryHooks
	credentialTimeout time.Duration

	// gen is bumped for every identity notification and every forced reset;
	// results computed under an older generation are dropped.
	gen      atomic.Uint64
	handleMu sync.Mutex

	mu           sync.RWMutex
	session      Session
	listeners    []sessionListener
	nextListener int
	baseCtx      context.Context
	unsubscribe  func()
	started      bool

	resolved     chan struct{}
	resolvedOnce sync.Once
}

// SessionOption customizes a SessionProvider.
type SessionOption func(*SessionProvider)

// WithSessionTelemetry routes session logs and metrics to hooks.
func WithSessionTelemetry(hooks TelemetryHooks) SessionOption {
	return func(p *SessionProvider) { p.telemetry = hooks }
}

// WithCredentialTimeout bounds the credential fetch made for each sign-in notification.
func WithCredentialTimeout(d time.Duration) SessionOption {
	return func(p *SessionProvider) {
		if d > 0 {
			p.credentialTimeout = d
		}
	}
}

// NewSessionProvider returns a provider in the unresolved state. Call Start
// once at bootstrap.
func NewSessionProvider(identity IdentityService, store kvstore.Store, opts ...SessionOption) *SessionProvider {
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	p := &SessionProvider{
		identity:          identity,
		store:             store,
		credentialTimeout: defaultCredentialTimeout,
		session:           Session{Loading: true},
		resolved:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start subscribes to identity changes. ctx bounds credential fetches made on
// behalf of notifications for the provider's lifetime.
func (p *SessionProvider) Start(ctx context.Context) error {
	if p.identity == nil {
		return ConfigError{Reason: "identity service is required"}
	}
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.baseCtx = ctx
	p.mu.Unlock()

	unsubscribe := p.identity.OnIdentityChange(p.handle)

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	return nil
}

// Stop releases the identity subscription.
func (p *SessionProvider) Stop() {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Snapshot returns the current session.
func (p *SessionProvider) Snapshot() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// WaitResolved blocks until the first identity notification has been processed.
func (p *SessionProvider) WaitResolved(ctx context.Context) (Session, error) {
	select {
	case <-p.resolved:
		return p.Snapshot(), nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Subscribe registers fn to run after every published change, in registration
// order. Listeners should read Snapshot for the latest state when ordering
// against concurrent changes matters.
func (p *SessionProvider) Subscribe(fn func(Session)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners = append(p.listeners, sessionListener{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, l := range p.listeners {
				if l.id == id {
					p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Token returns the current credential. It implements TokenProvider.
func (p *SessionProvider) Token(ctx context.Context) (string, error) {
	return p.identity.Credential(ctx, false)
}

// ForceRefresh fetches a new credential bypassing caches. The identity is
// never changed; on failure the session is left as it was. The result is
// dropped if the session changed while the fetch was in flight.
func (p *SessionProvider) ForceRefresh(ctx context.Context) (string, error) {
	gen := p.gen.Load()
	tok, err := p.identity.Credential(ctx, true)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", nil
	}

	p.mu.Lock()
	if gen != p.gen.Load() || p.session.Identity == nil {
		p.mu.Unlock()
		return tok, nil
	}
	p.session.Credential = tok
	storeErr := p.store.Set(ctx, kvstore.KeyFallbackToken, tok)
	p.mu.Unlock()

	if storeErr != nil {
		p.telemetry.log(ctx, LogLevelError, "fallback_token_persist_failed", map[string]any{"error": storeErr.Error()})
	}
	return tok, nil
}

// SignIn signs in with email and password. The session changes when the
// identity service reports the new principal.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	id, err := p.identity.SignIn(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, newAuthError("sign in", err)
	}
	return id, nil
}

// SignUp creates an account and signs it in.
func (p *SessionProvider) SignUp(ctx context.Context, email, password string) (*auth.Identity, error) {
	id, err := p.identity.SignUp(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, newAuthError("sign up", err)
	}
	return id, nil
}

// SignInFederated signs in with a token from an external provider.
func (p *SessionProvider) SignInFederated(ctx context.Context, providerID, idToken string) (*auth.Identity, error) {
	id, err := p.identity.SignInFederated(ctx, auth.FederatedRequest{ProviderID: providerID, IDToken: idToken})
	if err != nil {
		return nil, newAuthError("federated sign in", err)
	}
	return id, nil
}

// SignOut signs out of the identity service and resets the session to
// anonymous right away, dropping the fallback token.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	err := p.identity.SignOut(ctx)
	p.Expire()
	if err != nil {
		return newAuthError("sign out", err)
	}
	return nil
}

// Expire resets the session to anonymous and drops the fallback token.
// In-flight notification work that started earlier cannot overwrite the reset.
func (p *SessionProvider) Expire() {
	gen := p.gen.Add(1)
	p.publish(gen, Session{}, fallbackClear)
}

func (p *SessionProvider) handle(identity *auth.Identity) {
	gen := p.gen.Add(1)

	p.handleMu.Lock()
	defer p.handleMu.Unlock()

	ctx := p.context()
	if gen != p.gen.Load() {
		p.telemetry.log(ctx, LogLevelDebug, "identity_notification_superseded", map[string]any{"generation": gen})
		return
	}
	if identity == nil {
		p.publish(gen, Session{}, fallbackClear)
		return
	}

	next := Session{Identity: identity}
	fetchCtx, cancel := context.WithTimeout(ctx, p.credentialTimeout)
	tok, err := p.identity.Credential(fetchCtx, false)
	cancel()
	switch {
	case err != nil:
		p.telemetry.log(ctx, LogLevelError, "credential_fetch_failed", map[string]any{
			"uid":   identity.UID,
			"error": err.Error(),
		})
	case tok != "":
		next.Credential = tok
		p.publish(gen, next, fallbackStore)
		return
	}
	p.publish(gen, next, fallbackKeep)
}

func (p *SessionProvider) context() context.Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.baseCtx == nil {
		return context.Background()
	}
	return p.baseCtx
}

// fallbackUpdate says what publish does to the stored fallback token.
type fallbackUpdate int

const (
	fallbackKeep fallbackUpdate = iota
	// fallbackStore saves the published session's credential.
	fallbackStore
	fallbackClear
)

// publish installs s unless a newer generation has been issued since gen.
// The fallback slot is updated under the same lock and generation check, so
// a superseded notification can never write it.
func (p *SessionProvider) publish(gen uint64, s Session, fallback fallbackUpdate) {
	ctx := p.context()

	p.mu.Lock()
	if gen != p.gen.Load() {
		p.mu.Unlock()
		return
	}
	var storeErr error
	switch fallback {
	case fallbackStore:
		storeErr = p.store.Set(ctx, kvstore.KeyFallbackToken, s.Credential)
	case fallbackClear:
		storeErr = p.store.Remove(ctx, kvstore.KeyFallbackToken)
	}
	prev := p.session.State()
	p.session = s
	listeners := append([]sessionListener(nil), p.listeners...)
	p.mu.Unlock()

	p.resolvedOnce.Do(func() { close(p.resolved) })

	if storeErr != nil {
		p.telemetry.log(ctx, LogLevelError, "fallback_token_update_failed", map[string]any{"error": storeErr.Error()})
	}
	if next := s.State(); next != prev {
		p.telemetry.metric(ctx, MetricSessionTransition, 1, map[string]string{"from": prev.String(), "to": next.String()})
		p.telemetry.log(ctx, LogLevelInfo, "session_state_changed", map[string]any{"from": prev.String(), "to": next.String()})
	}
	for _, l := range listeners {
		l.fn(s)
	}
}
