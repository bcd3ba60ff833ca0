package sdk

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
)

type countingTokenProvider struct {
	token string
	err   error
	calls atomic.Int64
}

func (p *countingTokenProvider) Token(ctx context.Context) (string, error) {
	p.calls.Add(1)
	return p.token, p.err
}

func seededStore(t *testing.T, token string) kvstore.Store {
	t.Helper()
	store := kvstore.NewMemoryStore()
	if token != "" {
		if err := store.Set(context.Background(), kvstore.KeyFallbackToken, token); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return store
}

func TestResolveTokenPrefersProvider(t *testing.T) {
	provider := &countingTokenProvider{token: " live "}
	store := seededStore(t, "stored")

	if got := resolveToken(context.Background(), provider, store, TelemetryHooks{}); got != "live" {
		t.Fatalf("expected provider token, got %q", got)
	}
	if provider.calls.Load() != 1 {
		t.Fatalf("expected one provider call, got %d", provider.calls.Load())
	}
	if v, ok, _ := store.Get(context.Background(), kvstore.KeyFallbackToken); !ok || v != "stored" {
		t.Fatalf("stored token must be untouched when provider succeeds")
	}
}

func TestResolveTokenFetchErrorConsumesFallback(t *testing.T) {
	provider := &countingTokenProvider{err: errors.New("offline")}
	store := seededStore(t, "abc123")
	var metrics []Metric
	tel := TelemetryHooks{OnMetric: func(_ context.Context, m Metric) { metrics = append(metrics, m) }}

	if got := resolveToken(context.Background(), provider, store, tel); got != "abc123" {
		t.Fatalf("expected fallback token, got %q", got)
	}
	if _, ok, _ := store.Get(context.Background(), kvstore.KeyFallbackToken); ok {
		t.Fatalf("fallback token must be removed after a fetch error")
	}
	if len(metrics) != 1 || metrics[0].Name != MetricCredentialFallback || metrics[0].Labels["reason"] != "fetch_error" {
		t.Fatalf("unexpected metrics %+v", metrics)
	}

	// the slot is gone, so the next failure has nothing to fall back on
	if got := resolveToken(context.Background(), provider, store, tel); got != "" {
		t.Fatalf("expected no credential on second failure, got %q", got)
	}
}

func TestResolveTokenNilProviderUsesFallback(t *testing.T) {
	store := seededStore(t, "stored")
	if got := resolveToken(context.Background(), nil, store, TelemetryHooks{}); got != "stored" {
		t.Fatalf("expected stored token, got %q", got)
	}
	if got := resolveToken(context.Background(), nil, seededStore(t, ""), TelemetryHooks{}); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestStaticTokenProviderTrims(t *testing.T) {
	tok, err := StaticTokenProvider("  abc \n").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("unexpected token %q %v", tok, err)
	}
	fn := TokenProviderFunc(func(context.Context) (string, error) { return "fn", nil })
	if tok, _ := fn.Token(context.Background()); tok != "fn" {
		t.Fatalf("unexpected func token %q", tok)
	}
}
