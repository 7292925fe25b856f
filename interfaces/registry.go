package interfaces

import (
	"context"

	"servicediscovery/domain"
)

// Registry is the remote service registry seen from one client.
//
// Every method maps failures to *service.RegistryError: 400 validation_error, 401 authentication_error,
// 404 entity_not_found, 410 resource_gone (not for ListInstances), transport_error when no response was read.
// Any other status is success.
//
// Implemented by adapters.RegistryHTTP. Used by service.Publisher and service.Locator.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . Registry
type Registry interface {
	// ListInstances performs GET /api/v1/instances{query} with the non-empty filters.
	ListInstances(ctx context.Context, filters domain.InstanceFilters) (domain.InstanceList, error)

	// Register performs POST /api/v1/instances and returns the assigned id and links.
	Register(ctx context.Context, req domain.RegistrationRequest) (domain.Registration, error)

	// Heartbeat performs PUT on the heartbeat link returned by Register.
	Heartbeat(ctx context.Context, heartbeatURL string) error

	// Deregister performs DELETE /api/v1/instances/{id}.
	Deregister(ctx context.Context, id string) error
}
