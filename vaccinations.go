package sdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// VaccinationsClient tracks vaccination records.
type VaccinationsClient struct {
	client *Client
}

// List returns the vaccination records of one pet.
func (v *VaccinationsClient) List(ctx context.Context, petID int) ([]Vaccination, error) {
	if v == nil || v.client == nil {
		return nil, fmt.Errorf("sdk: vaccinations client not initialized")
	}
	if petID <= 0 {
		return nil, fmt.Errorf("sdk: pet id is required")
	}
	req, err := v.client.newJSONRequest(ctx, http.MethodGet, expandPath(routes.PetVaccinations, "{pet_id}", petID), nil)
	if err != nil {
		return nil, err
	}
	var out []Vaccination
	if err := v.client.sendJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create records a vaccination for one pet. The due date may not precede
// the date given.
func (v *VaccinationsClient) Create(ctx context.Context, petID int, in VaccinationInput) (Vaccination, error) {
	if v == nil || v.client == nil {
		return Vaccination{}, fmt.Errorf("sdk: vaccinations client not initialized")
	}
	if petID <= 0 {
		return Vaccination{}, fmt.Errorf("sdk: pet id is required")
	}
	if err := validateInput(in); err != nil {
		return Vaccination{}, err
	}
	if in.DueDate.Before(in.DateGiven.Time) {
		return Vaccination{}, fmt.Errorf("sdk: due date %s is before date given %s", in.DueDate, in.DateGiven)
	}
	req, err := v.client.newJSONRequest(ctx, http.MethodPost, expandPath(routes.PetVaccinations, "{pet_id}", petID), in)
	if err != nil {
		return Vaccination{}, err
	}
	var out Vaccination
	if err := v.client.sendJSON(req, &out); err != nil {
		return Vaccination{}, err
	}
	return out, nil
}

// Upcoming returns the owner's next due vaccinations across all pets,
// soonest first. The backend caps the list at five.
func (v *VaccinationsClient) Upcoming(ctx context.Context) ([]Vaccination, error) {
	if v == nil || v.client == nil {
		return nil, fmt.Errorf("sdk: vaccinations client not initialized")
	}
	req, err := v.client.newJSONRequest(ctx, http.MethodGet, routes.VaccinationsUpcoming, nil)
	if err != nil {
		return nil, err
	}
	var out []Vaccination
	if err := v.client.sendJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
