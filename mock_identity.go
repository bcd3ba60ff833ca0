package sdk

import (
	"context"
	"sync"

	"github.com/pawpilot/pawpilot/sdk/go/auth"
)

// MockIdentityService is an in-memory IdentityService for unit tests.
// Notifications are delivered synchronously by Emit, so tests control exactly
// when the SessionProvider sees them; nothing is delivered on registration.
type MockIdentityService struct {
	mu            sync.Mutex
	current       *auth.Identity
	listeners     []mockListener
	nextListener  int
	token         string
	tokenErr      error
	tokenFunc     func(ctx context.Context, forceRefresh bool) (string, error)
	signInErr     error
	signOutErr    error
	credCalls     int
	forcedCalls   int
	signOutCalled int
}

type mockListener struct {
	id int
	fn func(*auth.Identity)
}

var _ IdentityService = (*MockIdentityService)(nil)

// NewMockIdentityService creates a signed-out mock.
func NewMockIdentityService() *MockIdentityService {
	return &MockIdentityService{}
}

// WithCredential sets the token returned by Credential.
func (m *MockIdentityService) WithCredential(token string) *MockIdentityService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.tokenErr = token, nil
	return m
}

// WithCredentialError makes Credential fail with err.
func (m *MockIdentityService) WithCredentialError(err error) *MockIdentityService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenErr = err
	return m
}

// WithCredentialFunc replaces Credential's behavior entirely.
func (m *MockIdentityService) WithCredentialFunc(fn func(ctx context.Context, forceRefresh bool) (string, error)) *MockIdentityService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenFunc = fn
	return m
}

// WithSignInError makes SignIn, SignUp and SignInFederated fail with err.
func (m *MockIdentityService) WithSignInError(err error) *MockIdentityService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signInErr = err
	return m
}

// WithSignOutError makes SignOut fail with err after signing out locally.
func (m *MockIdentityService) WithSignOutError(err error) *MockIdentityService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutErr = err
	return m
}

// Emit sets the current identity and notifies every listener in registration order.
func (m *MockIdentityService) Emit(identity *auth.Identity) {
	m.mu.Lock()
	m.current = identity
	listeners := append([]mockListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l.fn(identity)
	}
}

// CredentialCalls reports how many times Credential ran, and how many of
// those were forced refreshes.
func (m *MockIdentityService) CredentialCalls() (total, forced int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credCalls, m.forcedCalls
}

// SignOutCalls reports how many times SignOut ran.
func (m *MockIdentityService) SignOutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signOutCalled
}

func (m *MockIdentityService) SignIn(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	return m.signIn(creds.Email, auth.ProviderPassword)
}

func (m *MockIdentityService) SignUp(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	return m.signIn(creds.Email, auth.ProviderPassword)
}

func (m *MockIdentityService) SignInFederated(ctx context.Context, req auth.FederatedRequest) (*auth.Identity, error) {
	return m.signIn(req.ProviderID+"-user", auth.ProviderFederated)
}

func (m *MockIdentityService) signIn(email, provider string) (*auth.Identity, error) {
	m.mu.Lock()
	err := m.signInErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	id := &auth.Identity{UID: "mock-" + email, Email: email, Provider: provider}
	m.Emit(id)
	return id, nil
}

func (m *MockIdentityService) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.signOutCalled++
	err := m.signOutErr
	m.mu.Unlock()
	m.Emit(nil)
	return err
}

func (m *MockIdentityService) CurrentIdentity() *auth.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *MockIdentityService) Credential(ctx context.Context, forceRefresh bool) (string, error) {
	m.mu.Lock()
	m.credCalls++
	if forceRefresh {
		m.forcedCalls++
	}
	fn, tok, err, current := m.tokenFunc, m.token, m.tokenErr, m.current
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, forceRefresh)
	}
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", nil
	}
	return tok, nil
}

func (m *MockIdentityService) OnIdentityChange(fn func(*auth.Identity)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners = append(m.listeners, mockListener{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
