package domain

// ConnState tracks a live connection through its lifecycle. Failed is
// terminal for a handle; reconnecting is always a fresh open.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MaxCommandLength bounds the text accepted by a single send.
const MaxCommandLength = 1000
