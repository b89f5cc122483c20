package sshshell

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/bandit-cli/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyAuthFailure(t *testing.T) {
	t.Parallel()

	err := classify(errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]"))
	require.ErrorIs(t, err, domain.ErrAuthFailure)
	assert.False(t, domain.Transient(err))
}

func TestClassifyTimeout(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, classify(timeoutErr{}), domain.ErrTimeout)
	require.ErrorIs(t, classify(context.DeadlineExceeded), domain.ErrTimeout)
	assert.True(t, domain.Transient(classify(timeoutErr{})))
}

func TestClassifyUnreachable(t *testing.T) {
	t.Parallel()

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	err := classify(opErr)
	require.ErrorIs(t, err, domain.ErrNetworkUnreachable)
	assert.True(t, domain.Transient(err))
}

func TestClassifyFallsBackToProtocol(t *testing.T) {
	t.Parallel()

	err := classify(errors.New("ssh: unexpected packet in response to channel open"))
	require.ErrorIs(t, err, domain.ErrProtocol)
	assert.False(t, domain.Transient(err))
}

func TestDialRefusedPortIsUnreachable(t *testing.T) {
	t.Parallel()

	// Reserve a port and close the listener so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())

	transport := New()
	_, err = transport.Dial(context.Background(), domain.Endpoint{
		Hostname: "127.0.0.1",
		Port:     addr.Port,
		Username: "bandit0",
	}, domain.Credentials{Password: "bandit0"}, 2*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetworkUnreachable)
}
