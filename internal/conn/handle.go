package conn

import (
	"sync"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

const outputChunkSize = 4096

// Handle is the caller-facing reference to one live connection. The manager
// owns the connection itself; the UI only ever holds a handle.
type Handle struct {
	session domain.Session

	mu      sync.Mutex
	state   domain.ConnState
	lastErr error
	shell   ports.ShellConn

	output     chan []byte
	status     chan domain.ConnState
	closed     chan struct{}
	closeOnce  sync.Once
	readerDone chan struct{}
}

func newHandle(session domain.Session) *Handle {
	return &Handle{
		session:    session,
		state:      domain.StateConnecting,
		output:     make(chan []byte, 32),
		status:     make(chan domain.ConnState, 8),
		closed:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

func (h *Handle) Session() domain.Session { return h.session }

// Output is the connection's lazy output sequence: chunks arrive in remote
// order and the channel closes when the connection ends. A fresh open yields
// a fresh sequence; this one never restarts.
func (h *Handle) Output() <-chan []byte { return h.output }

// StatusChanges delivers state transitions. Slow readers drop intermediate
// transitions instead of blocking the connection.
func (h *Handle) StatusChanges() <-chan domain.ConnState { return h.status }

func (h *Handle) State() domain.ConnState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the failure that terminated the connection, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *Handle) transition(state domain.ConnState, err error) {
	h.mu.Lock()
	if h.state == domain.StateFailed {
		// Failed is terminal.
		h.mu.Unlock()
		return
	}
	h.state = state
	if err != nil {
		h.lastErr = err
	}
	h.mu.Unlock()

	select {
	case h.status <- state:
	default:
	}
}
