package sdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// UsersClient reads the backend's record of the signed-in owner.
type UsersClient struct {
	client *Client
}

// Me returns the signed-in owner with their pets.
func (u *UsersClient) Me(ctx context.Context) (User, error) {
	if u == nil || u.client == nil {
		return User{}, fmt.Errorf("sdk: users client not initialized")
	}
	req, err := u.client.newJSONRequest(ctx, http.MethodGet, routes.Me, nil)
	if err != nil {
		return User{}, err
	}
	var out User
	if err := u.client.sendJSON(req, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// Verify asks the backend to check the current credential.
func (u *UsersClient) Verify(ctx context.Context) (Verification, error) {
	if u == nil || u.client == nil {
		return Verification{}, fmt.Errorf("sdk: users client not initialized")
	}
	req, err := u.client.newJSONRequest(ctx, http.MethodPost, routes.Verify, nil)
	if err != nil {
		return Verification{}, err
	}
	var out Verification
	if err := u.client.sendJSON(req, &out); err != nil {
		return Verification{}, err
	}
	return out, nil
}
