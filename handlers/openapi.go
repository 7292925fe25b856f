package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"servicediscovery/service"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed registry.openapi.yaml
var registryOpenAPI []byte

// PayloadValidator checks request bodies against the schemas of the embedded registry OpenAPI document.
type PayloadValidator struct {
	registration *openapi3.Schema
}

// NewPayloadValidator loads and validates the embedded OpenAPI document.
func NewPayloadValidator() (*PayloadValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(registryOpenAPI)
	if err != nil {
		return nil, fmt.Errorf("load registry openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid registry openapi document: %w", err)
	}

	ref := doc.Components.Schemas["RegistrationRequest"]
	if ref == nil || ref.Value == nil {
		return nil, errors.New("registry openapi document has no RegistrationRequest schema")
	}
	return &PayloadValidator{registration: ref.Value}, nil
}

// ValidateRegistration returns validation_error when body is not a valid RegistrationRequest.
func (v *PayloadValidator) ValidateRegistration(body []byte) error {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return service.NewValidationError("invalid request body", err.Error())
	}
	if err := v.registration.VisitJSON(payload); err != nil {
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			field := strings.Join(schemaErr.JSONPointer(), ".")
			if field == "" {
				return service.NewValidationError("invalid registration: "+schemaErr.Reason, err.Error())
			}
			return service.NewValidationError(fmt.Sprintf("invalid registration field %s: %s", field, schemaErr.Reason), err.Error())
		}
		return service.NewValidationError("invalid registration", err.Error())
	}
	return nil
}
