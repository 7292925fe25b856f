package service

import (
	"context"
	"testing"

	"servicediscovery/domain"
	"servicediscovery/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator_ListInstances(t *testing.T) {
	want := domain.InstanceList{Instances: []domain.Instance{{ID: "i1", ServiceName: "a", Status: "UP"}}}
	registry := &mock.RegistryMock{
		ListInstancesFunc: func(ctx context.Context, filters domain.InstanceFilters) (domain.InstanceList, error) {
			return want, nil
		},
	}
	l := NewLocator(registry, log.NewNopLogger())

	got, err := l.ListInstances(context.Background(), domain.InstanceFilters{ServiceName: "a", Status: "UP"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, registry.ListInstancesCalls(), 1)
	assert.Equal(t, "?service_name=a&status=UP", registry.ListInstancesCalls()[0].Filters.QueryString())
}

func TestLocator_ListInstancesErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "validation", err: NewValidationError("Bad request to service registry", "fields"), check: IsValidationError},
		{name: "authentication", err: NewAuthenticationError("Unauthorized service lookup: token is not valid", ""), check: IsAuthenticationError},
		{name: "not found", err: NewNotFoundError("Bad Service Discovery URL", "404 page"), check: IsNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mock.RegistryMock{
				ListInstancesFunc: func(ctx context.Context, filters domain.InstanceFilters) (domain.InstanceList, error) {
					return domain.InstanceList{}, tt.err
				},
			}
			_, err := NewLocator(registry, log.NewNopLogger()).ListInstances(context.Background(), domain.InstanceFilters{Fields: "dummy"})
			assert.True(t, tt.check(err))
		})
	}
}

func TestNewLocator_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "service.locator.go: registry is required", func() {
		NewLocator(nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "service.locator.go: logger is required", func() {
		NewLocator(&mock.RegistryMock{}, nil)
	})
}
