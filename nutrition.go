package sdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// NutritionClient asks for feeding advice.
type NutritionClient struct {
	client *Client
}

// Advice returns nutrition guidance for a breed, weight and age.
func (n *NutritionClient) Advice(ctx context.Context, req NutritionRequest) (NutritionAdvice, error) {
	if n == nil || n.client == nil {
		return NutritionAdvice{}, fmt.Errorf("sdk: nutrition client not initialized")
	}
	if err := validateInput(req); err != nil {
		return NutritionAdvice{}, err
	}
	httpReq, err := n.client.newJSONRequest(ctx, http.MethodPost, routes.NutritionAnalysis, req)
	if err != nil {
		return NutritionAdvice{}, err
	}
	var out NutritionAdvice
	if err := n.client.sendJSON(httpReq, &out); err != nil {
		return NutritionAdvice{}, err
	}
	return out, nil
}

// ForPet asks for advice using a pet record's breed, weight and age.
func (n *NutritionClient) ForPet(ctx context.Context, pet Pet) (NutritionAdvice, error) {
	return n.Advice(ctx, NutritionRequest{Breed: pet.Breed, WeightKg: pet.Weight, AgeYears: pet.Age})
}
