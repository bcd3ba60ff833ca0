package sdk

import (
	"context"

	"github.com/pawpilot/pawpilot/sdk/go/auth"
)

// IdentityService is the external identity provider. *auth.Client implements it.
type IdentityService interface {
	SignIn(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
	SignUp(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
	SignInFederated(ctx context.Context, req auth.FederatedRequest) (*auth.Identity, error)
	SignOut(ctx context.Context) error
	CurrentIdentity() *auth.Identity
	// Credential returns "" with a nil error when nobody is signed in.
	Credential(ctx context.Context, forceRefresh bool) (string, error)
	OnIdentityChange(fn func(*auth.Identity)) (unsubscribe func())
}

var _ IdentityService = (*auth.Client)(nil)
