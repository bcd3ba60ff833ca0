package sdk

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type validationErrors = validator.ValidationErrors

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("sdk: %w", err)
	}
	return nil
}
