package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pawpilot/pawpilot/sdk/go/routes"
)

// DiagnosisClient forwards symptom descriptions for an AI-assisted
// assessment.
type DiagnosisClient struct {
	client *Client
}

// FromText diagnoses from a free-text symptom description.
func (d *DiagnosisClient) FromText(ctx context.Context, symptoms string) (Diagnosis, error) {
	if d == nil || d.client == nil {
		return Diagnosis{}, fmt.Errorf("sdk: diagnosis client not initialized")
	}
	in := SymptomRequest{Symptoms: strings.TrimSpace(symptoms)}
	if err := validateInput(in); err != nil {
		return Diagnosis{}, err
	}
	req, err := d.client.newJSONRequest(ctx, http.MethodPost, routes.DiagnoseText, in)
	if err != nil {
		return Diagnosis{}, err
	}
	var out Diagnosis
	if err := d.client.sendJSON(req, &out); err != nil {
		return Diagnosis{}, err
	}
	return out, nil
}

// Ask sends a voice assistant question. The backend answers questions
// through the same endpoint as symptom descriptions.
func (d *DiagnosisClient) Ask(ctx context.Context, question string) (Diagnosis, error) {
	return d.FromText(ctx, question)
}
