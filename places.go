package sdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// PlacesClient searches vets and pet pharmacies near a coordinate.
type PlacesClient struct {
	client *Client
}

type nearbyPlaces struct {
	Places []Place `json:"places"`
}

// Nearby returns places of search.SearchType around a coordinate. An empty
// SearchType searches veterinary care. No results is an empty slice.
func (pc *PlacesClient) Nearby(ctx context.Context, search PlaceSearch) ([]Place, error) {
	if pc == nil || pc.client == nil {
		return nil, fmt.Errorf("sdk: places client not initialized")
	}
	if search.SearchType == "" {
		search.SearchType = PlaceVeterinaryCare
	}
	if err := validateInput(search); err != nil {
		return nil, err
	}
	req, err := pc.client.newJSONRequest(ctx, http.MethodPost, routes.PlacesNearby, search)
	if err != nil {
		return nil, err
	}
	var out nearbyPlaces
	if err := pc.client.sendJSON(req, &out); err != nil {
		return nil, err
	}
	if out.Places == nil {
		return []Place{}, nil
	}
	return out.Places, nil
}
