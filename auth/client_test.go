package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pawpilot/pawpilot/sdk/go/headers"
	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func waitIdentity(t *testing.T, ch <-chan *Identity) *Identity {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for identity notification")
		return nil
	}
}

func TestClientSignIn(t *testing.T) {
	var captured struct {
		Path string
		Body map[string]string
		Ua   string
		Key  string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Ua = r.Header.Get("User-Agent")
		captured.Key = r.Header.Get(headers.IdentityKey)
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{
			IDToken:      "id-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
			User:         &Identity{UID: "u1", Email: "me@example.com", DisplayName: "Me"},
		})
	}))
	defer server.Close()

	store := kvstore.NewMemoryStore()
	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "pk_test", Store: store})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	notes := make(chan *Identity, 4)
	unsubscribe := client.OnIdentityChange(func(id *Identity) { notes <- id })
	defer unsubscribe()
	if initial := waitIdentity(t, notes); initial != nil {
		t.Fatalf("expected initial nil identity, got %+v", initial)
	}

	id, err := client.SignIn(context.Background(), Credentials{Email: "me@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if id.UID != "u1" || id.Provider != ProviderPassword {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if captured.Path != routes.AccountsSignIn {
		t.Fatalf("expected %s, got %s", routes.AccountsSignIn, captured.Path)
	}
	if captured.Body["email"] != "me@example.com" || captured.Body["password"] != "secret1" {
		t.Fatalf("unexpected payload: %+v", captured.Body)
	}
	if !strings.Contains(captured.Ua, "PawPilotSDK") {
		t.Fatalf("expected default user agent, got %s", captured.Ua)
	}
	if captured.Key != "pk_test" {
		t.Fatalf("expected identity key header, got %q", captured.Key)
	}

	if got := waitIdentity(t, notes); got == nil || got.UID != "u1" {
		t.Fatalf("expected sign-in notification, got %+v", got)
	}

	tok, err := client.Credential(context.Background(), false)
	if err != nil || tok != "id-1" {
		t.Fatalf("expected cached id token, got %q err=%v", tok, err)
	}
	if rt, ok, _ := store.Get(context.Background(), kvstore.KeyRefreshToken); !ok || rt != "refresh-1" {
		t.Fatalf("expected persisted refresh token, got %q", rt)
	}
}

func TestSignInRejectsInvalidInputWithoutCallingService(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.SignIn(context.Background(), Credentials{Email: "not-an-email", Password: "secret1"}); err == nil {
		t.Fatalf("expected validation error for email")
	}
	if _, err := client.SignUp(context.Background(), Credentials{Email: "me@example.com", Password: "123"}); err == nil {
		t.Fatalf("expected validation error for short password")
	}
	if _, err := client.SignInFederated(context.Background(), FederatedRequest{ProviderID: "google.com"}); err == nil {
		t.Fatalf("expected validation error for missing id token")
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no service calls, got %d", got)
	}
}

func TestCredentialRefreshesNearExpiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	var refreshes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case routes.AccountsSignUp:
			_ = json.NewEncoder(w).Encode(TokenResponse{
				IDToken:      signedToken(t, "u2", base.Add(10*time.Minute)),
				RefreshToken: "refresh-a",
			})
		case routes.Token:
			refreshes.Add(1)
			var req RefreshRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.RefreshToken != "refresh-a" || req.GrantType != "refresh_token" {
				t.Errorf("unexpected refresh request %+v", req)
			}
			_ = json.NewEncoder(w).Encode(TokenResponse{
				IDToken:   signedToken(t, "u2", base.Add(70*time.Minute)),
				ExpiresIn: 3600,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	client.now = func() time.Time { return now }

	id, err := client.SignUp(context.Background(), Credentials{Email: "u2@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if id.UID != "u2" || id.Email != "u2@example.com" {
		t.Fatalf("expected identity from token claims, got %+v", id)
	}

	first, err := client.Credential(context.Background(), false)
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if refreshes.Load() != 0 {
		t.Fatalf("expected cached token to be reused")
	}

	now = now.Add(9*time.Minute + 30*time.Second)
	second, err := client.Credential(context.Background(), false)
	if err != nil {
		t.Fatalf("credential after skew: %v", err)
	}
	if refreshes.Load() != 1 || second == first {
		t.Fatalf("expected one refresh, got %d", refreshes.Load())
	}

	if _, err := client.Credential(context.Background(), true); err != nil {
		t.Fatalf("forced credential: %v", err)
	}
	if refreshes.Load() != 2 {
		t.Fatalf("expected forced refresh, got %d", refreshes.Load())
	}
}

func TestCredentialWithoutUserIsEmpty(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://identity.invalid"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	tok, err := client.Credential(context.Background(), true)
	if err != nil || tok != "" {
		t.Fatalf("expected empty credential, got %q err=%v", tok, err)
	}
}

func TestSignOutClearsStateAndNotifies(t *testing.T) {
	var revoked atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case routes.AccountsSignIn:
			_ = json.NewEncoder(w).Encode(TokenResponse{
				IDToken:      "id-1",
				RefreshToken: "refresh-1",
				User:         &Identity{UID: "u1"},
			})
		case routes.AccountsSignOut:
			revoked.Add(1)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	store := kvstore.NewMemoryStore()
	client, err := NewClient(Config{BaseURL: server.URL, Store: store})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.SignIn(context.Background(), Credentials{Email: "me@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	notes := make(chan *Identity, 4)
	defer client.OnIdentityChange(func(id *Identity) { notes <- id })()
	if got := waitIdentity(t, notes); got == nil {
		t.Fatalf("expected signed-in initial state")
	}

	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if got := waitIdentity(t, notes); got != nil {
		t.Fatalf("expected nil identity after sign out, got %+v", got)
	}
	if client.CurrentIdentity() != nil {
		t.Fatalf("expected no current identity")
	}
	if revoked.Load() != 1 {
		t.Fatalf("expected refresh token revocation")
	}
	if _, ok, _ := store.Get(context.Background(), kvstore.KeyIdentity); ok {
		t.Fatalf("expected persisted identity removed")
	}
}

func TestNewClientRestoresPersistedIdentity(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, kvstore.KeyIdentity, `{"uid":"u9","email":"nine@example.com"}`)
	_ = store.Set(ctx, kvstore.KeyRefreshToken, "refresh-9")

	client, err := NewClient(Config{BaseURL: "http://identity.invalid", Store: store})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	notes := make(chan *Identity, 1)
	defer client.OnIdentityChange(func(id *Identity) { notes <- id })()
	if got := waitIdentity(t, notes); got == nil || got.UID != "u9" {
		t.Fatalf("expected restored identity, got %+v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TokenResponse{IDToken: "id", RefreshToken: "rt", User: &Identity{UID: "u1"}})
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	var first, second atomic.Int64
	unsubscribe := client.OnIdentityChange(func(*Identity) { first.Add(1) })
	done := make(chan struct{}, 4)
	defer client.OnIdentityChange(func(*Identity) { second.Add(1); done <- struct{}{} })()

	<-done // initial delivery to the second listener
	unsubscribe()
	if _, err := client.SignIn(context.Background(), Credentials{Email: "me@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	<-done

	if got := second.Load(); got != 2 {
		t.Fatalf("expected 2 deliveries to remaining listener, got %d", got)
	}
	if got := first.Load(); got != 1 {
		t.Fatalf("expected only the initial delivery before unsubscribe, got %d", got)
	}
}

func TestSignInErrorPropagation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"EMAIL_EXISTS","message":"email exists"}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	_, err = client.SignUp(context.Background(), Credentials{Email: "me@example.com", Password: "secret1"})
	var apiErr Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "EMAIL_EXISTS" {
		t.Fatalf("expected Error, got %v", err)
	}
	if apiErr.DisplayMessage() != "An account with this email already exists." {
		t.Fatalf("unexpected display message %q", apiErr.DisplayMessage())
	}
	if client.CurrentIdentity() != nil {
		t.Fatalf("failed sign-up must not leave an identity")
	}
}

func TestRefreshErrorPropagation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	store := kvstore.NewMemoryStore()
	_ = store.Set(context.Background(), kvstore.KeyIdentity, `{"uid":"u1"}`)
	_ = store.Set(context.Background(), kvstore.KeyRefreshToken, "bad")
	client, err := NewClient(Config{BaseURL: server.URL, Store: store})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	_, err = client.Credential(context.Background(), false)
	var apiErr Error
	if !(errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized) {
		t.Fatalf("expected Error, got %v", err)
	}
	if client.CurrentIdentity() == nil {
		t.Fatalf("refresh failure must not sign the user out")
	}
}
