package domain

// Lifecycle is the registration state of a publisher.
type Lifecycle int

const (
	Unregistered Lifecycle = iota
	Registered
	Deregistered
)

func (l Lifecycle) String() string {
	switch l {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Deregistered:
		return "deregistered"
	default:
		return "unknown"
	}
}
