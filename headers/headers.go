// Package headers defines HTTP header constants used across the PawPilot clients.
// This is the single source of truth for header names used in API requests/responses.
package headers

const (
	// RequestID is the header for request correlation.
	// The SDK stamps one on every outgoing call unless the caller already set it.
	RequestID = "X-PawPilot-Request-Id"

	// ResponseRequestID is echoed by the backend on every response.
	ResponseRequestID = "X-Request-Id"

	// IdentityKey carries the identity project's public API key.
	IdentityKey = "X-PawPilot-Identity-Key" //nolint:gosec // This is a header name, not a credential

	// Authorization carries the bearer credential.
	Authorization = "Authorization"

	// Traceparent is the W3C trace context header.
	Traceparent = "Traceparent"
)
