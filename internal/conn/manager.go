// Package conn owns the live remote connections. Each connection gets its
// own reader goroutine pumping remote output into the handle's channel;
// descriptors, history and caches live elsewhere.
package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/offline"
	"github.com/bnema/bandit-cli/internal/ports"
)

const DefaultDialTimeout = 10 * time.Second

type Manager struct {
	transport ports.ShellTransport
	offline   *offline.Controller
	timeout   time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	conns map[domain.SessionID]*Handle
}

func NewManager(transport ports.ShellTransport, controller *offline.Controller, timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		transport: transport,
		offline:   controller,
		timeout:   timeout,
		logger:    logger,
		conns:     make(map[domain.SessionID]*Handle),
	}
}

// Open dials the session's endpoint and starts pumping its output. It fails
// with ErrAlreadyConnected while a live connection exists for the same id and
// with ErrOffline when the mode snapshot taken at entry is offline; the
// transport is never touched in either case.
func (m *Manager) Open(ctx context.Context, session domain.Session, creds domain.Credentials) (*Handle, error) {
	// One mode snapshot per open; a toggle mid-dial does not split the attempt.
	if m.offline.IsOffline() {
		return nil, fmt.Errorf("open %s: %w", session.ID, domain.ErrOffline)
	}

	handle := newHandle(session)

	m.mu.Lock()
	if existing, ok := m.conns[session.ID]; ok {
		state := existing.State()
		if state == domain.StateConnecting || state == domain.StateConnected {
			m.mu.Unlock()
			return nil, fmt.Errorf("open %s: %w", session.ID, domain.ErrAlreadyConnected)
		}
	}
	m.conns[session.ID] = handle
	m.mu.Unlock()

	shell, err := m.transport.Dial(ctx, session.Endpoint(), creds, m.timeout)
	if err != nil {
		m.remove(session.ID, handle)
		if !closedRequested(handle) {
			handle.transition(domain.StateFailed, err)
		}
		close(handle.output)
		return nil, fmt.Errorf("open %s: %w", session.ID, err)
	}

	// Publish the shell only if no close arrived while the dial was in
	// flight. Close reads handle.shell under the same lock: either it sees
	// the shell and waits for the read loop, or it finished the teardown
	// already and the shell must be released here without starting one.
	handle.mu.Lock()
	if closedRequested(handle) {
		handle.mu.Unlock()
		_ = shell.Close()
		m.remove(session.ID, handle)
		close(handle.output)
		return nil, fmt.Errorf("open %s: %w", session.ID, domain.ErrConnectionClosed)
	}
	handle.shell = shell
	handle.mu.Unlock()
	handle.transition(domain.StateConnected, nil)
	m.logger.Info("connection established",
		zap.String("session", string(session.ID)),
		zap.String("host", session.Hostname),
		zap.Int("port", session.Port))

	go m.readLoop(handle, shell)
	return handle, nil
}

// Send forwards a command line to the remote side. It does not record
// history; that stays the caller's concern so the log is transport-agnostic.
func (m *Manager) Send(handle *Handle, command string) error {
	if strings.TrimSpace(command) == "" {
		return domain.ErrEmptyCommand
	}
	if len(command) > domain.MaxCommandLength {
		return fmt.Errorf("%d bytes: %w", len(command), domain.ErrCommandTooLong)
	}

	handle.mu.Lock()
	shell := handle.shell
	state := handle.state
	handle.mu.Unlock()

	if state != domain.StateConnected || shell == nil {
		return fmt.Errorf("send to %s: %w", handle.session.ID, domain.ErrConnectionClosed)
	}

	if err := shell.Write([]byte(command + "\n")); err != nil {
		return fmt.Errorf("send to %s: %w", handle.session.ID, err)
	}
	return nil
}

// Close tears the connection down. It is idempotent, safe concurrently with
// Send and with output reads, and leaves other connections untouched.
func (m *Manager) Close(handle *Handle) {
	handle.closeOnce.Do(func() {
		close(handle.closed)

		handle.mu.Lock()
		shell := handle.shell
		handle.mu.Unlock()

		if shell != nil {
			// Unblocks the reader; the loop finishes the teardown.
			if err := shell.Close(); err != nil {
				m.logger.Debug("transport close", zap.Error(err))
			}
			<-handle.readerDone
		} else {
			close(handle.readerDone)
		}

		handle.transition(domain.StateDisconnected, nil)
		m.remove(handle.session.ID, handle)
		m.logger.Info("connection closed", zap.String("session", string(handle.session.ID)))
	})
}

// CloseAll closes every live connection.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.conns))
	for _, handle := range m.conns {
		handles = append(handles, handle)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, handle := range handles {
		handle := handle
		g.Go(func() error {
			m.Close(handle)
			return nil
		})
	}
	_ = g.Wait()
}

// Lookup returns the live handle for a session id, if any.
func (m *Manager) Lookup(id domain.SessionID) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.conns[id]
	return handle, ok
}

func (m *Manager) remove(id domain.SessionID, handle *Handle) {
	m.mu.Lock()
	if current, ok := m.conns[id]; ok && current == handle {
		delete(m.conns, id)
	}
	m.mu.Unlock()
}

func (m *Manager) readLoop(handle *Handle, shell ports.ShellConn) {
	defer close(handle.readerDone)
	defer close(handle.output)

	reader := shell.Reader()
	buf := make([]byte, outputChunkSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case handle.output <- chunk:
			case <-handle.closed:
				return
			}
		}
		if err != nil {
			if closedRequested(handle) {
				return
			}
			// Remote hangup or I/O failure while connected: terminal for
			// this handle, the caller reopens explicitly if it wants to.
			readErr := fmt.Errorf("remote read: %w", err)
			if errors.Is(err, io.EOF) {
				readErr = fmt.Errorf("remote hangup: %w", domain.ErrConnectionClosed)
			}
			handle.transition(domain.StateFailed, readErr)
			m.remove(handle.session.ID, handle)
			m.logger.Warn("connection failed",
				zap.String("session", string(handle.session.ID)),
				zap.Error(readErr))
			_ = shell.Close()
			return
		}
	}
}

func closedRequested(handle *Handle) bool {
	select {
	case <-handle.closed:
		return true
	default:
		return false
	}
}
