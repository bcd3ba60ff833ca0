package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pawpilot/pawpilot/sdk/go/kvstore"
	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

const defaultBaseURL = "http://127.0.0.1:8000"
const defaultUserAgent = "pawpilot-sdk-go/" + Version

// Config wires credentials, storage, navigation and telemetry for the client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Tokens supplies the bearer credential. Usually the SessionProvider.
	Tokens TokenProvider
	// Store holds the fallback token slot. Defaults to an in-memory store.
	Store kvstore.Store
	// Navigator receives the forced redirect after a 401.
	Navigator Navigator
	// Session is expired after a 401 when set.
	Session   *SessionProvider
	LoginPath string
	Telemetry TelemetryHooks
	UserAgent string

	// Extra hooks run after the built-in ones, in order.
	RequestHooks  []RequestHook
	ResponseHooks []ResponseHook
}

// Option customizes Config before the client is built.
type Option func(*Config)

// WithBaseURL overrides the backend origin.
func WithBaseURL(u string) Option { return func(c *Config) { c.BaseURL = u } }

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Config) { c.HTTPClient = hc } }

// WithTelemetry sets the telemetry hooks.
func WithTelemetry(h TelemetryHooks) Option { return func(c *Config) { c.Telemetry = h } }

// WithNavigator sets the navigator used for forced redirects.
func WithNavigator(n Navigator) Option { return func(c *Config) { c.Navigator = n } }

// WithRequestHook appends a pre-dispatch hook.
func WithRequestHook(h RequestHook) Option {
	return func(c *Config) { c.RequestHooks = append(c.RequestHooks, h) }
}

// WithResponseHook appends a post-response hook.
func WithResponseHook(h ResponseHook) Option {
	return func(c *Config) { c.ResponseHooks = append(c.ResponseHooks, h) }
}

// Client is the single egress point for backend calls.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	telemetry     TelemetryHooks
	requestHooks  []RequestHook
	responseHooks []ResponseHook

	// Grouped service clients.
	Pets         *PetsClient
	Vaccinations *VaccinationsClient
	Diagnosis    *DiagnosisClient
	Places       *PlacesClient
	Nutrition    *NutritionClient
	Users        *UsersClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	store := cfg.Store
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = noopNavigator{}
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = routes.AppLogin
	}
	tokens := cfg.Tokens
	if tokens == nil && cfg.Session != nil {
		tokens = cfg.Session
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	client := &Client{
		baseURL:    normalized,
		httpClient: httpClient,
		telemetry:  cfg.Telemetry,
	}
	client.requestHooks = append([]RequestHook{
		userAgentHook(ua),
		requestIDHook,
		credentialHook(tokens, store, cfg.Telemetry),
		traceparentHook,
	}, cfg.RequestHooks...)
	client.responseHooks = append([]ResponseHook{
		unauthorizedHook(store, cfg.Session, nav, loginPath, cfg.Telemetry),
	}, cfg.ResponseHooks...)

	client.Pets = &PetsClient{client: client}
	client.Vaccinations = &VaccinationsClient{client: client}
	client.Diagnosis = &DiagnosisClient{client: client}
	client.Places = &PlacesClient{client: client}
	client.Nutrition = &NutritionClient{client: client}
	client.Users = &UsersClient{client: client}
	return client, nil
}

// NewClientWithSession builds a client whose credentials come from p and
// whose forced redirects go to nav.
func NewClientWithSession(p *SessionProvider, store kvstore.Store, nav Navigator, opts ...Option) (*Client, error) {
	if p == nil {
		return nil, ConfigError{Reason: "session provider is required"}
	}
	return NewClient(Config{Tokens: p, Session: p, Store: store, Navigator: nav}, opts...)
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ConfigError{Reason: "base URL required"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ConfigError{Reason: fmt.Sprintf("invalid base URL: %v", err)}
	}
	if u.Scheme == "" {
		return "", ConfigError{Reason: "base URL missing scheme (http/https)"}
	}
	if u.Host == "" {
		return "", ConfigError{Reason: "base URL missing host"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// Do sends an arbitrary request through the hook pipeline. Relative URLs are
// resolved against the backend origin.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.URL != nil && !req.URL.IsAbs() {
		abs, err := url.Parse(c.buildURL(req.URL.String()))
		if err != nil {
			return nil, err
		}
		req.URL = abs
		req.Host = abs.Host
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	for _, hook := range c.requestHooks {
		if err := hook(req); err != nil {
			return nil, err
		}
	}
	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(req.Context(), req)
	}
	c.telemetry.log(req.Context(), LogLevelDebug, "http_request", map[string]any{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(req.Context(), req, resp, err, latency)
	}
	c.telemetry.metric(req.Context(), MetricHTTPLatency, float64(latency.Milliseconds()), map[string]string{
		"path": req.URL.Path,
	})

	for _, hook := range c.responseHooks {
		if hookErr := hook(req, resp, err); hookErr != nil {
			if resp != nil {
				//nolint:errcheck // best-effort cleanup on return
				_ = resp.Body.Close()
			}
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: fmt.Sprintf("%s %s failed", req.Method, req.URL.Path),
			Cause:   err,
		}
	}
	if resp.StatusCode >= 400 {
		//nolint:errcheck // best-effort cleanup on return
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

// sendJSON sends req and decodes a JSON body into out when out is non-nil.
func (c *Client) sendJSON(req *http.Request, out any) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("sdk: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
