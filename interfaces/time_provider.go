package interfaces

import "time"

// TimeProvider supplies the current time for heartbeat timestamps.
// Injected so tests can use a fixed clock instead of time.Now().
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns the current time (UTC in prod).
	Now() time.Time
}
