package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// errHeartbeaterStarted is returned by start on anything but an idle heartbeater.
var errHeartbeaterStarted = errors.New("heartbeater already started")

type heartbeaterState int

const (
	heartbeaterIdle heartbeaterState = iota
	heartbeaterRunning
	heartbeaterStopped
)

// heartbeater calls beat every interval on its own goroutine until stopped or until beat fails.
// It moves Idle -> Running -> Stopped and is never restarted; the publisher builds a new one per registration.
// The stop signal is checked on every wake-up and before every beat; a beat already in flight is not interrupted.
//
// onExit runs on the loop goroutine before done is closed and must not wait for the heartbeater.
// afterExit runs once done is closed, so it may stop the heartbeater or start a new one.
type heartbeater struct {
	interval  time.Duration
	beat      func(ctx context.Context) error
	onExit    func(err error)
	afterExit func(err error)
	logger    log.Logger

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	mu    sync.Mutex
	state heartbeaterState
	err   error
}

func newHeartbeater(interval time.Duration, beat func(ctx context.Context) error, onExit, afterExit func(err error), logger log.Logger) *heartbeater {
	return &heartbeater{
		interval:  interval,
		beat:      beat,
		onExit:    onExit,
		afterExit: afterExit,
		logger:    log.With(logger, "component", "heartbeater", "interval", interval),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (h *heartbeater) start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != heartbeaterIdle {
		return errHeartbeaterStarted
	}
	h.state = heartbeaterRunning
	go h.loop()
	return nil
}

// stop signals the loop and blocks until it has exited. It returns the error that ended the loop, if any.
// Safe to call more than once and after the loop died on its own.
func (h *heartbeater) stop() error {
	h.mu.Lock()
	if h.state == heartbeaterIdle {
		h.state = heartbeaterStopped
		close(h.done)
	}
	h.mu.Unlock()

	h.quitOnce.Do(func() { close(h.quit) })
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *heartbeater) running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == heartbeaterRunning
}

func (h *heartbeater) loop() {
	var err error
	defer func() {
		h.mu.Lock()
		h.state = heartbeaterStopped
		h.err = err
		h.mu.Unlock()
		if h.onExit != nil {
			h.onExit(err)
		}
		close(h.done)
		if h.afterExit != nil {
			h.afterExit(err)
		}
	}()

	level.Debug(h.logger).Log("msg", "heartbeater started")
	timer := time.NewTimer(h.interval)
	defer timer.Stop()
	for {
		select {
		case <-h.quit:
			level.Debug(h.logger).Log("msg", "heartbeater stopped")
			return
		case <-timer.C:
		}

		select {
		case <-h.quit:
			level.Debug(h.logger).Log("msg", "heartbeater stopped")
			return
		default:
		}

		if err = h.beat(context.Background()); err != nil {
			level.Error(h.logger).Log("msg", "heartbeat failed, heartbeater exits", "err", err)
			return
		}
		timer.Reset(h.interval)
	}
}
