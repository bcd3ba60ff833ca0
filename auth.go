// Package sdk is the PawPilot Go client. Every backend call goes through a
// Client, which attaches the session credential and reacts to rejected calls.
package sdk

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pawpilot/pawpilot/sdk/go/headers"
	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
)

// RequestHook runs before a request is dispatched. A non-nil error aborts the call.
type RequestHook func(req *http.Request) error

// ResponseHook runs after dispatch with whatever the transport returned. A
// non-nil error replaces the call's result.
type ResponseHook func(req *http.Request, resp *http.Response, err error) error

func userAgentHook(ua string) RequestHook {
	return func(req *http.Request) error {
		if ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		return nil
	}
}

func requestIDHook(req *http.Request) error {
	if req.Header.Get(headers.RequestID) == "" {
		req.Header.Set(headers.RequestID, uuid.NewString())
	}
	return nil
}

// credentialHook attaches the bearer credential, or nothing when none can be
// obtained; the backend decides what an unauthenticated call may do.
func credentialHook(tokens TokenProvider, store kvstore.Store, tel TelemetryHooks) RequestHook {
	return func(req *http.Request) error {
		if tok := resolveToken(req.Context(), tokens, store, tel); tok != "" {
			req.Header.Set(headers.Authorization, "Bearer "+tok)
		}
		return nil
	}
}

// unauthorizedHook invalidates the persisted fallback token, expires the
// session and sends the user to sign-in, once per 401 response. The error
// itself still reaches the caller.
func unauthorizedHook(store kvstore.Store, session *SessionProvider, nav Navigator, loginPath string, tel TelemetryHooks) ResponseHook {
	return func(req *http.Request, resp *http.Response, err error) error {
		if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return nil
		}
		ctx := req.Context()
		if rmErr := store.Remove(ctx, kvstore.KeyFallbackToken); rmErr != nil {
			tel.log(ctx, LogLevelError, "fallback_token_remove_failed", map[string]any{"error": rmErr.Error()})
		}
		if session != nil {
			session.Expire()
		}
		tel.metric(ctx, MetricUnauthorized, 1, map[string]string{"path": req.URL.Path})
		tel.log(ctx, LogLevelWarn, "backend_rejected_credential", map[string]any{
			"method": req.Method,
			"path":   req.URL.Path,
		})
		nav.Redirect(loginPath)
		return nil
	}
}
