package domain

// ConnectionState only moves forward: Open -> Closing -> Closed.
type ConnectionState int32

const (
	StateOpen ConnectionState = iota
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
