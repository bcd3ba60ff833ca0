package sdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// PetsClient manages the owner's pet records.
type PetsClient struct {
	client *Client
}

// List returns every pet of the signed-in owner, vaccinations included.
func (p *PetsClient) List(ctx context.Context) ([]Pet, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("sdk: pets client not initialized")
	}
	req, err := p.client.newJSONRequest(ctx, http.MethodGet, routes.Pets, nil)
	if err != nil {
		return nil, err
	}
	var pets []Pet
	if err := p.client.sendJSON(req, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// Create adds a pet.
func (p *PetsClient) Create(ctx context.Context, in PetInput) (Pet, error) {
	if p == nil || p.client == nil {
		return Pet{}, fmt.Errorf("sdk: pets client not initialized")
	}
	if err := validateInput(in); err != nil {
		return Pet{}, err
	}
	req, err := p.client.newJSONRequest(ctx, http.MethodPost, routes.Pets, in)
	if err != nil {
		return Pet{}, err
	}
	var pet Pet
	if err := p.client.sendJSON(req, &pet); err != nil {
		return Pet{}, err
	}
	return pet, nil
}
