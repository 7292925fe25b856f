package service

import (
	"context"
	"math"
	"sync"
	"time"

	"servicediscovery/domain"
	"servicediscovery/helpers"
	"servicediscovery/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// HeartbeatTimeFormat is the layout of heartbeat history entries, always in UTC.
const HeartbeatTimeFormat = "01/02/2006 15:04:05"

// HeartbeatInterval returns the heartbeat period for a TTL: half the TTL rounded to the nearest second, at least one second.
func HeartbeatInterval(ttlSeconds int) time.Duration {
	secs := math.Round(float64(ttlSeconds) / 2)
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the publisher logger. Default is a nop logger.
func WithLogger(logger log.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// WithTimeProvider sets the clock used for heartbeat timestamps.
func WithTimeProvider(clock interfaces.TimeProvider) PublisherOption {
	return func(p *Publisher) { p.clock = clock }
}

// WithHeartbeatInterval overrides the ttl/2 heartbeat period.
func WithHeartbeatInterval(interval time.Duration) PublisherOption {
	return func(p *Publisher) { p.interval = interval }
}

// WithHeartbeatErrorHandler registers fn to be called once, from the heartbeat goroutine, when the
// background heartbeater stops because a heartbeat failed. fn runs after the heartbeater has exited,
// so it may call Register or Deregister.
func WithHeartbeatErrorHandler(fn func(error)) PublisherOption {
	return func(p *Publisher) { p.onHeartbeatErr = fn }
}

// Publisher owns the registration of one service instance: Register, periodic Heartbeat and Deregister.
//
// Register and Deregister are serialized by lifecycleMu and may block on the heartbeater; state is
// guarded by mu, which is never held across a registry call or while waiting for the heartbeater.
type Publisher struct {
	registry       interfaces.Registry
	request        domain.RegistrationRequest
	clock          interfaces.TimeProvider
	logger         log.Logger
	interval       time.Duration
	onHeartbeatErr func(error)

	lifecycleMu sync.Mutex

	mu           sync.Mutex
	lifecycle    domain.Lifecycle
	id           string
	heartbeatURL string
	generation   uint64
	history      []string
	beater       *heartbeater
	heartbeatErr error
}

// NewPublisher creates an unregistered Publisher for req. Panics on nil registry.
// Returns validation_error when the service name is empty or the TTL is not positive.
func NewPublisher(registry interfaces.Registry, req domain.RegistrationRequest, opts ...PublisherOption) (*Publisher, error) {
	if req.ServiceName == "" {
		return nil, NewValidationError("service name is required", "")
	}
	if req.TTL <= 0 {
		return nil, NewValidationError("ttl must be a positive number of seconds", "")
	}

	p := &Publisher{
		registry:  helpers.NilPanic(registry, "service.publisher.go: registry is required"),
		request:   req,
		clock:     NewTimeProvider(time.Now),
		logger:    log.NewNopLogger(),
		interval:  HeartbeatInterval(req.TTL),
		lifecycle: domain.Unregistered,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = log.With(p.logger, "component", "publisher", "service", req.ServiceName)
	return p, nil
}

// Register posts the registration request. On success the publisher becomes Registered with the id and heartbeat
// link from the response, and when startHeartbeat is set a heartbeater begins beating every interval.
//
// Registering an already registered publisher is allowed and overwrites id and link. The heartbeater of the
// previous registration is stopped first; the previous remote instance is left to expire.
//
// On failure the lifecycle is unchanged and the error is a *RegistryError. A heartbeater stopped for the
// attempt is not restarted: HeartbeatErr then reports the registration error.
func (p *Publisher) Register(ctx context.Context, startHeartbeat bool) (domain.Registration, error) {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	wasBeating := p.stopHeartbeater()

	reg, err := p.registry.Register(ctx, p.request)
	if err != nil {
		p.logError("register failed", err)
		if wasBeating {
			p.mu.Lock()
			p.heartbeatErr = err
			p.mu.Unlock()
		}
		return domain.Registration{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lifecycle = domain.Registered
	p.id = reg.ID
	p.heartbeatURL = reg.Links.Heartbeat
	p.generation++
	p.heartbeatErr = nil
	p.beater = nil
	level.Info(p.logger).Log("action", "register", "id", reg.ID, "heartbeat", startHeartbeat)

	if startHeartbeat {
		p.beater = newHeartbeater(p.interval, p.beat, p.heartbeaterExited(p.generation), p.heartbeatFailed(p.generation), p.logger)
		if err := p.beater.start(); err != nil {
			return reg, NewLifecycleError(err.Error())
		}
	}
	return reg, nil
}

// Heartbeat sends one heartbeat for the current registration and appends its UTC timestamp to the history.
// It fails with lifecycle_error, without calling the registry, when the publisher is not registered.
// A resource_gone error means the registry already dropped this instance.
func (p *Publisher) Heartbeat(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.lifecycle != domain.Registered {
		p.mu.Unlock()
		return "", NewLifecycleError("service instance is not registered")
	}
	heartbeatURL, generation := p.heartbeatURL, p.generation
	p.mu.Unlock()

	if err := p.registry.Heartbeat(ctx, heartbeatURL); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lifecycle != domain.Registered || p.generation != generation {
		return "", NewLifecycleError("registration changed while heartbeating")
	}
	stamp := p.clock.Now().UTC().Format(HeartbeatTimeFormat)
	p.history = append(p.history, stamp)
	level.Debug(p.logger).Log("action", "heartbeat", "id", p.id, "at", stamp)
	return stamp, nil
}

// Deregister stops the heartbeater and waits for it, clears the heartbeat history and deletes the instance.
// When Deregister returns no further heartbeat is sent by that heartbeater.
//
// On a registry error the publisher stays Registered, keeping id and link so the call can be retried.
func (p *Publisher) Deregister(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.stopHeartbeater()

	p.mu.Lock()
	if p.lifecycle != domain.Registered {
		p.mu.Unlock()
		return NewLifecycleError("service instance is not registered")
	}
	p.history = nil
	p.generation++
	id := p.id
	p.mu.Unlock()

	if err := p.registry.Deregister(ctx, id); err != nil {
		p.logError("deregister failed", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lifecycle = domain.Deregistered
	p.id = ""
	p.heartbeatURL = ""
	p.history = nil
	p.generation++
	level.Info(p.logger).Log("action", "deregister", "id", id)
	return nil
}

// LastHeartbeat returns the most recent heartbeat timestamp, or "" when none was recorded.
func (p *Publisher) LastHeartbeat() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return ""
	}
	return p.history[len(p.history)-1]
}

// HeartbeatHistory returns a copy of the heartbeat timestamps of the current registration, oldest first.
func (p *Publisher) HeartbeatHistory() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

// Lifecycle returns the registration state.
func (p *Publisher) Lifecycle() domain.Lifecycle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lifecycle
}

// ID returns the registry id, empty unless Registered.
func (p *Publisher) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// HeartbeatURL returns the heartbeat link, empty unless Registered.
func (p *Publisher) HeartbeatURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heartbeatURL
}

// Heartbeating reports whether a heartbeater is running.
func (p *Publisher) Heartbeating() bool {
	p.mu.Lock()
	beater := p.beater
	p.mu.Unlock()
	return beater != nil && beater.running()
}

// HeartbeatErr returns the error that stopped the heartbeater of the current registration, if any:
// a failed heartbeat, or a failed re-registration that had to stop it.
func (p *Publisher) HeartbeatErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heartbeatErr
}

// HeartbeatDone returns a channel closed once the current heartbeater has exited.
// Without a heartbeater the channel is already closed.
func (p *Publisher) HeartbeatDone() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.beater == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return p.beater.done
}

func (p *Publisher) beat(ctx context.Context) error {
	_, err := p.Heartbeat(ctx)
	return err
}

// heartbeaterExited records why the heartbeater of registration generation stopped.
// It runs before the heartbeater is joinable and only takes mu.
func (p *Publisher) heartbeaterExited(generation uint64) func(error) {
	return func(err error) {
		if err == nil {
			return
		}
		p.mu.Lock()
		if p.generation == generation {
			p.heartbeatErr = err
		}
		p.mu.Unlock()

		p.logError("heartbeat failed, heartbeats stopped", err)
	}
}

// heartbeatFailed hands the error to the heartbeat error handler once the heartbeater has exited,
// unless the registration changed meanwhile.
func (p *Publisher) heartbeatFailed(generation uint64) func(error) {
	return func(err error) {
		if err == nil || p.onHeartbeatErr == nil {
			return
		}
		p.mu.Lock()
		current := p.generation == generation
		p.mu.Unlock()
		if current {
			p.onHeartbeatErr(err)
		}
	}
}

// stopHeartbeater stops and joins the heartbeater, if any, and reports whether it was still running.
// Caller must hold lifecycleMu, not mu.
func (p *Publisher) stopHeartbeater() bool {
	p.mu.Lock()
	beater := p.beater
	p.mu.Unlock()
	if beater == nil {
		return false
	}
	wasRunning := beater.running()
	_ = beater.stop()
	return wasRunning
}

func (p *Publisher) logError(msg string, err error) {
	keyvals := []interface{}{"msg", msg, "err", err}
	if regErr := ToRegistryError(err); regErr != nil && regErr.Details != "" {
		keyvals = append(keyvals, "details", regErr.Details)
	}
	level.Error(p.logger).Log(keyvals...)
}
