package sdk

import (
	"context"
	"strings"

	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
)

// TokenProvider supplies the bearer credential for outgoing backend calls.
// *SessionProvider implements it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticTokenProvider always returns the same token.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(p)), nil
}

// resolveToken picks the credential for one outgoing call. The provider is
// asked first. When it fails, the persisted fallback is read, discarded from
// storage, and used for this call only. When it returns nothing, the persisted
// fallback is used as is. "" means the call goes out unauthenticated.
func resolveToken(ctx context.Context, tokens TokenProvider, store kvstore.Store, tel TelemetryHooks) string {
	var (
		token string
		err   error
	)
	if tokens != nil {
		token, err = tokens.Token(ctx)
		token = strings.TrimSpace(token)
	}
	if err == nil && token != "" {
		return token
	}

	fallback, ok, getErr := store.Get(ctx, kvstore.KeyFallbackToken)
	if getErr != nil {
		tel.log(ctx, LogLevelWarn, "fallback_token_read_failed", map[string]any{"error": getErr.Error()})
	}
	if !ok {
		fallback = ""
	}

	if err != nil {
		tel.log(ctx, LogLevelWarn, "credential_fetch_failed", map[string]any{"error": err.Error()})
		if rmErr := store.Remove(ctx, kvstore.KeyFallbackToken); rmErr != nil {
			tel.log(ctx, LogLevelError, "fallback_token_remove_failed", map[string]any{"error": rmErr.Error()})
		}
		if fallback != "" {
			tel.metric(ctx, MetricCredentialFallback, 1, map[string]string{"reason": "fetch_error"})
		}
		return fallback
	}
	if fallback != "" {
		tel.metric(ctx, MetricCredentialFallback, 1, map[string]string{"reason": "empty"})
	}
	return fallback
}
