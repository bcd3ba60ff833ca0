package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/auth"
	"github.com/pawpilot/pawpilot/sdk/go/headers"
)

var (
	// ErrAlreadyStarted is returned when a SessionProvider is started twice.
	ErrAlreadyStarted = errors.New("sdk: session provider already started")
	// ErrNotSignedIn is returned by helpers that need an authenticated session.
	ErrNotSignedIn = errors.New("sdk: not signed in")
)

// APIError captures a failed backend response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Code == "" {
		e.Code = "UNKNOWN"
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	apiErr := APIError{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get(headers.ResponseRequestID),
	}
	if len(data) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}
	// The backend answers either {"detail": "..."} or {"error": {...}}.
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = string(data)
		return apiErr
	}
	apiErr.Code = payload.Error.Code
	apiErr.Message = payload.Error.Message
	if apiErr.Message == "" && len(payload.Detail) > 0 {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			apiErr.Message = detail
		} else {
			apiErr.Message = string(payload.Detail)
		}
	}
	if payload.RequestID != "" {
		apiErr.RequestID = payload.RequestID
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

// TransportErrorKind classifies network failures.
type TransportErrorKind string

const (
	TransportErrorTimeout    TransportErrorKind = "timeout"
	TransportErrorCanceled   TransportErrorKind = "canceled"
	TransportErrorConnection TransportErrorKind = "connection"
	TransportErrorOther      TransportErrorKind = "other"
)

// TransportError wraps a failure to get any HTTP response at all.
type TransportError struct {
	Kind    TransportErrorKind
	Message string
	Cause   error
}

func (e TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("sdk: %s (%s)", e.Message, e.Kind)
	}
	return fmt.Sprintf("sdk: %s (%s): %v", e.Message, e.Kind, e.Cause)
}

func (e TransportError) Unwrap() error { return e.Cause }

func classifyTransportErrorKind(err error) TransportErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return TransportErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return TransportErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportErrorTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return TransportErrorConnection
	}
	return TransportErrorOther
}

// ConfigError reports an invalid client configuration.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return "sdk: invalid config: " + e.Reason }

// AuthError is a failed sign-in, sign-up or sign-out. Message is safe to show
// to the end user.
type AuthError struct {
	Op      string
	Message string
	Cause   error
}

func (e AuthError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("sdk: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("sdk: %s: %v", e.Op, e.Cause)
}

func (e AuthError) Unwrap() error { return e.Cause }

func newAuthError(op string, err error) AuthError {
	msg := "Something went wrong. Try again."
	var svcErr auth.Error
	var valErr validationErrors
	switch {
	case errors.As(err, &svcErr):
		msg = svcErr.DisplayMessage()
	case errors.As(err, &valErr):
		msg = "Enter a valid email and a password of at least 6 characters."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		msg = "The request timed out. Try again."
	}
	return AuthError{Op: op, Message: msg, Cause: err}
}
