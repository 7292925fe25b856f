package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// ErrValidation means the registry rejected the request payload or filters (400).
	ErrValidation = "validation_error"
	// ErrAuthentication means the bearer token is invalid or expired (401).
	ErrAuthentication = "authentication_error"
	// ErrEntityNotFound means the registry endpoint or instance does not exist (404).
	ErrEntityNotFound = "entity_not_found"
	// ErrResourceGone means the referenced instance existed but has been removed or expired (410).
	ErrResourceGone = "resource_gone"
	// ErrTransport means the request never produced a usable response (connect, timeout, DNS, malformed body).
	ErrTransport = "transport_error"
	// ErrLifecycle means a local precondition was violated, e.g. heartbeating before registering.
	ErrLifecycle = "lifecycle_error"
	// ErrConfiguration means credentials or settings could not be resolved.
	ErrConfiguration = "configuration_error"
	// ErrInternalServerError is only produced by the stub registry.
	ErrInternalServerError = "internal_server_error"
)

// RegistryError is the error returned by every registry operation.
// Message is safe to show to users; Details carries diagnostics (response body, transport text) for logs only.
type RegistryError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Details is internal diagnostic text, never shown to API consumers.
	Details string `json:"-"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewRegistryError creates a new RegistryError.
func NewRegistryError(code, message, details string, inner error) *RegistryError {
	return &RegistryError{
		Code:    code,
		Message: message,
		Details: details,
		Inner:   inner,
	}
}

func NewValidationError(message, details string) *RegistryError {
	return NewRegistryError(ErrValidation, message, details, nil)
}

func NewAuthenticationError(message, details string) *RegistryError {
	return NewRegistryError(ErrAuthentication, message, details, nil)
}

// NewNotFoundError defaults the message to "Resource does not exist." when empty.
func NewNotFoundError(message, details string) *RegistryError {
	if message == "" {
		message = "Resource does not exist."
	}
	return NewRegistryError(ErrEntityNotFound, message, details, nil)
}

func NewResourceGoneError(message, details string) *RegistryError {
	return NewRegistryError(ErrResourceGone, message, details, nil)
}

// NewTransportError wraps a failure that happened before a registry status could be read.
func NewTransportError(message string, inner error) *RegistryError {
	var details string
	if inner != nil {
		details = inner.Error()
	}
	return NewRegistryError(ErrTransport, message, details, inner)
}

func NewLifecycleError(message string) *RegistryError {
	return NewRegistryError(ErrLifecycle, message, "", nil)
}

func NewConfigurationError(message string, inner error) *RegistryError {
	return NewRegistryError(ErrConfiguration, message, "", inner)
}

func NewInternalServerError(message string, inner error) *RegistryError {
	if regErr := ToRegistryError(inner); regErr != nil {
		return regErr
	}
	return NewRegistryError(ErrInternalServerError, message, "", inner)
}

func (e RegistryError) Error() string {
	switch {
	case e.Inner != nil:
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	case e.Details != "":
		return fmt.Sprintf("%s %s: %s", e.Code, e.Message, e.Details)
	default:
		return fmt.Sprintf("%s %s", e.Code, e.Message)
	}
}

// Unwrap the error returning the error's reason.
func (e RegistryError) Unwrap() error {
	return e.Inner
}

// ToRegistryError returns a pointer to a registry error, or nil if err is not one.
func ToRegistryError(err error) *RegistryError {
	var e *RegistryError
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// ErrorCode returns the code of the error, if available.
func ErrorCode(err error) string {
	if regErr := ToRegistryError(err); regErr != nil {
		return regErr.Code
	}
	return ""
}

func IsRegistryError(err error, code string) bool {
	regErr := ToRegistryError(err)
	return regErr != nil && regErr.Code == code
}

func IsValidationError(err error) bool     { return IsRegistryError(err, ErrValidation) }
func IsAuthenticationError(err error) bool { return IsRegistryError(err, ErrAuthentication) }
func IsNotFoundError(err error) bool       { return IsRegistryError(err, ErrEntityNotFound) }
func IsResourceGoneError(err error) bool   { return IsRegistryError(err, ErrResourceGone) }
func IsTransportError(err error) bool      { return IsRegistryError(err, ErrTransport) }
func IsLifecycleError(err error) bool      { return IsRegistryError(err, ErrLifecycle) }
func IsConfigurationError(err error) bool  { return IsRegistryError(err, ErrConfiguration) }

// Operation names the registry call a status is mapped for; it selects the 401 and transport wording.
type Operation string

const (
	OpLookup     Operation = "lookup"
	OpRegister   Operation = "registration"
	OpHeartbeat  Operation = "heartbeat"
	OpDeregister Operation = "de-registration"
)

// TransportMessage is the user message for a transport failure during op.
func (op Operation) TransportMessage() string {
	switch op {
	case OpLookup:
		return "Error on service lookup"
	case OpRegister:
		return "Error registering service"
	case OpHeartbeat:
		return "Error heartbeating service"
	case OpDeregister:
		return "Error de-registering service"
	default:
		return "Error calling service registry"
	}
}

// FromStatus maps a registry response status to a RegistryError. It returns nil for every status that is not
// 400, 401, 404 or 410; 410 is only mapped when allowGone is set (it does not apply to lookups).
func FromStatus(op Operation, status int, body []byte, allowGone bool) error {
	switch status {
	case http.StatusBadRequest:
		return NewValidationError("Bad request to service registry", errorDetails(body))
	case http.StatusUnauthorized:
		return NewAuthenticationError(fmt.Sprintf("Unauthorized service %s: token is not valid", op), errorDetails(body))
	case http.StatusNotFound:
		return NewNotFoundError("Bad Service Discovery URL", string(body))
	case http.StatusGone:
		if allowGone {
			return NewResourceGoneError("Service instance not found", errorDetails(body))
		}
	}
	return nil
}

// errorDetails extracts the "Error" field the registry puts in error bodies, falling back to the raw body.
func errorDetails(body []byte) string {
	var payload struct {
		Error string `json:"Error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
