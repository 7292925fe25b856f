package service

import (
	"context"

	"servicediscovery/domain"
	"servicediscovery/helpers"
	"servicediscovery/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Locator queries the registry for instances. It is read-only.
type Locator struct {
	registry interfaces.Registry
	logger   log.Logger
}

// NewLocator creates a Locator. Panics on nil registry or logger.
func NewLocator(registry interfaces.Registry, logger log.Logger) *Locator {
	return &Locator{
		registry: helpers.NilPanic(registry, "service.locator.go: registry is required"),
		logger:   log.With(helpers.NilPanic(logger, "service.locator.go: logger is required"), "component", "locator"),
	}
}

// ListInstances returns the instances matching filters. Errors are *RegistryError with code
// validation_error, authentication_error, entity_not_found or transport_error.
func (l *Locator) ListInstances(ctx context.Context, filters domain.InstanceFilters) (domain.InstanceList, error) {
	list, err := l.registry.ListInstances(ctx, filters)
	if err != nil {
		keyvals := []interface{}{"msg", "list instances failed", "query", filters.QueryString(), "err", err}
		if regErr := ToRegistryError(err); regErr != nil && regErr.Details != "" {
			keyvals = append(keyvals, "details", regErr.Details)
		}
		level.Error(l.logger).Log(keyvals...)
		return domain.InstanceList{}, err
	}
	level.Debug(l.logger).Log("msg", "listed instances", "query", filters.QueryString(), "count", len(list.Instances))
	return list, nil
}
