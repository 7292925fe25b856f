package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"servicediscovery/domain"
	"servicediscovery/interfaces/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() domain.RegistrationRequest {
	return domain.NewRegistrationRequest("orders", 30, "UP", domain.Endpoint{Value: "10.0.0.7:8080", Type: "http"}, []string{"v1"})
}

// registryWithIDs answers registrations with sequential ids and heartbeat links.
func registryWithIDs() *mock.RegistryMock {
	var n atomic.Int32
	return &mock.RegistryMock{
		RegisterFunc: func(ctx context.Context, req domain.RegistrationRequest) (domain.Registration, error) {
			id := fmt.Sprintf("id-%d", n.Add(1))
			return domain.Registration{
				ID: id,
				Links: domain.RegistrationLinks{
					Self:      "http://registry/api/v1/instances/" + id,
					Heartbeat: "http://registry/api/v1/instances/" + id + "/heartbeat",
				},
			}, nil
		},
	}
}

func newTestPublisher(t *testing.T, registry *mock.RegistryMock, opts ...PublisherOption) *Publisher {
	t.Helper()
	p, err := NewPublisher(registry, testRequest(), opts...)
	require.NoError(t, err)
	return p
}

func TestHeartbeatInterval(t *testing.T) {
	tests := []struct {
		ttl  int
		want time.Duration
	}{
		{ttl: 30, want: 15 * time.Second},
		{ttl: 7, want: 4 * time.Second},
		{ttl: 5, want: 3 * time.Second},
		{ttl: 2, want: time.Second},
		{ttl: 1, want: time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.ttl), func(t *testing.T) {
			assert.Equal(t, tt.want, HeartbeatInterval(tt.ttl))
		})
	}
}

func TestNewPublisher_Validation(t *testing.T) {
	registry := &mock.RegistryMock{}

	_, err := NewPublisher(registry, domain.NewRegistrationRequest("", 30, "UP", domain.Endpoint{}, nil))
	assert.True(t, IsValidationError(err))

	_, err = NewPublisher(registry, domain.NewRegistrationRequest("svc", 0, "UP", domain.Endpoint{}, nil))
	assert.True(t, IsValidationError(err))

	assert.PanicsWithValue(t, "service.publisher.go: registry is required", func() {
		_, _ = NewPublisher(nil, testRequest())
	})
}

func TestPublisher_RegisterThenDeregister(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry)
	assert.Equal(t, domain.Unregistered, p.Lifecycle())

	reg, err := p.Register(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-1", reg.ID)
	assert.Equal(t, domain.Registered, p.Lifecycle())
	assert.Equal(t, "id-1", p.ID())
	assert.Equal(t, "http://registry/api/v1/instances/id-1/heartbeat", p.HeartbeatURL())
	assert.False(t, p.Heartbeating())

	require.Len(t, registry.RegisterCalls(), 1)
	assert.Equal(t, testRequest(), registry.RegisterCalls()[0].Req)

	_, err = p.Heartbeat(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Deregister(context.Background()))

	assert.Equal(t, domain.Deregistered, p.Lifecycle())
	assert.Empty(t, p.HeartbeatHistory())
	assert.Empty(t, p.LastHeartbeat())
	assert.Empty(t, p.ID())
	assert.Empty(t, p.HeartbeatURL())
	require.Len(t, registry.DeregisterCalls(), 1)
	assert.Equal(t, "id-1", registry.DeregisterCalls()[0].ID)
}

func TestPublisher_HeartbeatBeforeRegister(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry)

	_, err := p.Heartbeat(context.Background())
	assert.True(t, IsLifecycleError(err))
	assert.Empty(t, registry.HeartbeatCalls())
	assert.Empty(t, p.LastHeartbeat())
}

func TestPublisher_DeregisterBeforeRegister(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry)

	err := p.Deregister(context.Background())
	assert.True(t, IsLifecycleError(err))
	assert.Empty(t, registry.DeregisterCalls())
	assert.Equal(t, domain.Unregistered, p.Lifecycle())
}

func TestPublisher_RegisterFailureKeepsUnregistered(t *testing.T) {
	registry := &mock.RegistryMock{
		RegisterFunc: func(ctx context.Context, req domain.RegistrationRequest) (domain.Registration, error) {
			return domain.Registration{}, NewAuthenticationError("Unauthorized service registration: token is not valid", "")
		},
	}
	p := newTestPublisher(t, registry)

	_, err := p.Register(context.Background(), true)
	assert.True(t, IsAuthenticationError(err))
	assert.Equal(t, domain.Unregistered, p.Lifecycle())
	assert.Empty(t, p.ID())
	assert.False(t, p.Heartbeating())
}

func TestPublisher_HeartbeatRecordsUTCTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	clock := &mock.TimeProviderMock{NowFunc: func() time.Time {
		return time.Date(2026, 3, 4, 15, 6, 7, 0, loc)
	}}
	registry := registryWithIDs()
	p := newTestPublisher(t, registry, WithTimeProvider(clock))

	_, err := p.Register(context.Background(), false)
	require.NoError(t, err)

	stamp, err := p.Heartbeat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "03/04/2026 12:06:07", stamp)
	assert.Equal(t, stamp, p.LastHeartbeat())
	require.Len(t, registry.HeartbeatCalls(), 1)
	assert.Equal(t, "http://registry/api/v1/instances/id-1/heartbeat", registry.HeartbeatCalls()[0].HeartbeatURL)
}

func TestPublisher_LastHeartbeatIsIdempotent(t *testing.T) {
	p := newTestPublisher(t, registryWithIDs())
	_, err := p.Register(context.Background(), false)
	require.NoError(t, err)
	_, err = p.Heartbeat(context.Background())
	require.NoError(t, err)

	first := p.LastHeartbeat()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, p.LastHeartbeat())
	assert.Equal(t, first, p.LastHeartbeat())
}

func TestPublisher_HeartbeatHistoryIsOrdered(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &mock.TimeProviderMock{NowFunc: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}}
	p := newTestPublisher(t, registryWithIDs(), WithTimeProvider(clock), WithHeartbeatInterval(2*time.Millisecond))
	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.HeartbeatHistory()) >= 3 }, 2*time.Second, time.Millisecond)

	history := p.HeartbeatHistory()
	for i := 1; i < len(history); i++ {
		prev, err := time.Parse(HeartbeatTimeFormat, history[i-1])
		require.NoError(t, err)
		cur, err := time.Parse(HeartbeatTimeFormat, history[i])
		require.NoError(t, err)
		assert.False(t, cur.Before(prev))
	}
	require.NoError(t, p.Deregister(context.Background()))
}

func TestPublisher_BackgroundHeartbeats(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry, WithHeartbeatInterval(5*time.Millisecond))

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, p.Heartbeating())

	require.Eventually(t, func() bool { return p.LastHeartbeat() != "" }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return len(registry.HeartbeatCalls()) >= 3 }, time.Second, time.Millisecond)
	for _, call := range registry.HeartbeatCalls() {
		assert.Equal(t, "http://registry/api/v1/instances/id-1/heartbeat", call.HeartbeatURL)
	}

	require.NoError(t, p.Deregister(context.Background()))
	assert.False(t, p.Heartbeating())
}

func TestPublisher_NoHeartbeatAfterDeregister(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry, WithHeartbeatInterval(2*time.Millisecond))

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(registry.HeartbeatCalls()) >= 2 }, time.Second, time.Millisecond)

	require.NoError(t, p.Deregister(context.Background()))
	calls := len(registry.HeartbeatCalls())

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, registry.HeartbeatCalls(), calls)
	assert.Empty(t, p.HeartbeatHistory())
	select {
	case <-p.HeartbeatDone():
	default:
		t.Fatal("heartbeater still running after Deregister")
	}
}

func TestPublisher_ResourceGoneStopsHeartbeats(t *testing.T) {
	registry := registryWithIDs()
	var beats atomic.Int32
	registry.HeartbeatFunc = func(ctx context.Context, heartbeatURL string) error {
		if beats.Add(1) >= 2 {
			return NewResourceGoneError("Service instance not found", "expired")
		}
		return nil
	}
	handled := make(chan error, 1)
	p := newTestPublisher(t, registry,
		WithHeartbeatInterval(2*time.Millisecond),
		WithHeartbeatErrorHandler(func(err error) { handled <- err }),
	)

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)

	select {
	case <-p.HeartbeatDone():
	case <-time.After(time.Second):
		t.Fatal("heartbeater did not stop on 410")
	}
	assert.True(t, IsResourceGoneError(p.HeartbeatErr()))
	assert.True(t, IsResourceGoneError(<-handled))
	assert.False(t, p.Heartbeating())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), beats.Load())
	assert.Len(t, p.HeartbeatHistory(), 1)

	// the heartbeater is already gone; Deregister must still go through
	require.NoError(t, p.Deregister(context.Background()))
	assert.Equal(t, domain.Deregistered, p.Lifecycle())
}

func TestPublisher_ReRegisterReplacesHeartbeater(t *testing.T) {
	registry := registryWithIDs()
	p := newTestPublisher(t, registry, WithHeartbeatInterval(2*time.Millisecond))

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(registry.HeartbeatCalls()) >= 1 }, time.Second, time.Millisecond)
	oldDone := p.HeartbeatDone()

	reg, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "id-2", reg.ID)
	assert.Equal(t, "id-2", p.ID())

	select {
	case <-oldDone:
	default:
		t.Fatal("previous heartbeater still running")
	}
	before := len(registry.HeartbeatCalls())
	require.Eventually(t, func() bool { return len(registry.HeartbeatCalls()) >= before+2 }, time.Second, time.Millisecond)
	for _, call := range registry.HeartbeatCalls()[before:] {
		assert.Equal(t, "http://registry/api/v1/instances/id-2/heartbeat", call.HeartbeatURL)
	}
	assert.Empty(t, registry.DeregisterCalls())

	require.NoError(t, p.Deregister(context.Background()))
	require.Len(t, registry.DeregisterCalls(), 1)
	assert.Equal(t, "id-2", registry.DeregisterCalls()[0].ID)
}

func TestPublisher_ReRegisterAfterDeregister(t *testing.T) {
	p := newTestPublisher(t, registryWithIDs())

	_, err := p.Register(context.Background(), false)
	require.NoError(t, err)
	require.NoError(t, p.Deregister(context.Background()))

	reg, err := p.Register(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-2", reg.ID)
	assert.Equal(t, domain.Registered, p.Lifecycle())
}

func TestPublisher_DeregisterFailureStaysRegistered(t *testing.T) {
	registry := registryWithIDs()
	registry.DeregisterFunc = func(ctx context.Context, id string) error {
		return NewResourceGoneError("Service instance not found", "")
	}
	p := newTestPublisher(t, registry, WithHeartbeatInterval(2*time.Millisecond))

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.LastHeartbeat() != "" }, time.Second, time.Millisecond)

	err = p.Deregister(context.Background())
	assert.True(t, IsResourceGoneError(err))
	assert.Equal(t, domain.Registered, p.Lifecycle())
	assert.Equal(t, "id-1", p.ID())
	assert.False(t, p.Heartbeating())
	assert.Empty(t, p.HeartbeatHistory())
}

func TestPublisher_HeartbeatErrorHandlerMayDeregister(t *testing.T) {
	registry := registryWithIDs()
	registry.HeartbeatFunc = func(ctx context.Context, heartbeatURL string) error {
		return NewResourceGoneError("Service instance not found", "expired")
	}
	deregistered := make(chan error, 1)
	var p *Publisher
	p = newTestPublisher(t, registry,
		WithHeartbeatInterval(2*time.Millisecond),
		WithHeartbeatErrorHandler(func(err error) {
			deregistered <- p.Deregister(context.Background())
		}),
	)

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)

	select {
	case err := <-deregistered:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Deregister called from the heartbeat error handler did not return")
	}
	assert.Equal(t, domain.Deregistered, p.Lifecycle())
	require.Len(t, registry.DeregisterCalls(), 1)
	assert.Equal(t, "id-1", registry.DeregisterCalls()[0].ID)

	reg, err := p.Register(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-2", reg.ID)
}

func TestPublisher_HeartbeatInFlightDuringDeregister(t *testing.T) {
	registry := registryWithIDs()
	heartbeatEntered := make(chan struct{})
	releaseHeartbeat := make(chan struct{})
	registry.HeartbeatFunc = func(ctx context.Context, heartbeatURL string) error {
		close(heartbeatEntered)
		<-releaseHeartbeat
		return nil
	}
	deleteEntered := make(chan struct{})
	releaseDelete := make(chan struct{})
	registry.DeregisterFunc = func(ctx context.Context, id string) error {
		close(deleteEntered)
		<-releaseDelete
		return nil
	}
	p := newTestPublisher(t, registry)

	_, err := p.Register(context.Background(), false)
	require.NoError(t, err)

	heartbeatErr := make(chan error, 1)
	go func() {
		_, err := p.Heartbeat(context.Background())
		heartbeatErr <- err
	}()
	<-heartbeatEntered

	deregisterErr := make(chan error, 1)
	go func() { deregisterErr <- p.Deregister(context.Background()) }()
	<-deleteEntered

	close(releaseHeartbeat)
	assert.True(t, IsLifecycleError(<-heartbeatErr))

	close(releaseDelete)
	require.NoError(t, <-deregisterErr)
	assert.Equal(t, domain.Deregistered, p.Lifecycle())
	assert.Empty(t, p.HeartbeatHistory())
	assert.Empty(t, p.LastHeartbeat())
}

func TestPublisher_ReRegisterFailsWhileHeartbeating(t *testing.T) {
	registry := registryWithIDs()
	succeed := registry.RegisterFunc
	var fail atomic.Bool
	registerErr := NewTransportError("Error registering service", fmt.Errorf("connection refused"))
	registry.RegisterFunc = func(ctx context.Context, req domain.RegistrationRequest) (domain.Registration, error) {
		if fail.Load() {
			return domain.Registration{}, registerErr
		}
		return succeed(ctx, req)
	}
	p := newTestPublisher(t, registry, WithHeartbeatInterval(2*time.Millisecond))

	_, err := p.Register(context.Background(), true)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.LastHeartbeat() != "" }, time.Second, time.Millisecond)

	fail.Store(true)
	_, err = p.Register(context.Background(), true)
	require.Error(t, err)

	assert.Equal(t, domain.Registered, p.Lifecycle())
	assert.Equal(t, "id-1", p.ID())
	assert.False(t, p.Heartbeating())
	assert.Same(t, registerErr, p.HeartbeatErr())
	select {
	case <-p.HeartbeatDone():
	default:
		t.Fatal("HeartbeatDone not closed after the heartbeater was stopped")
	}
}
