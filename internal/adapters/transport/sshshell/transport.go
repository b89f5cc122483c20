// Package sshshell implements the shell transport over SSH with an
// interactive PTY session, mirroring how the training targets expect to be
// driven. Dial errors are classified into the domain taxonomy so callers can
// tell retryable network trouble from rejected credentials.
package sshshell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/ports"
)

type Transport struct{}

var _ ports.ShellTransport = (*Transport)(nil)

func New() *Transport { return &Transport{} }

func (t *Transport) Dial(ctx context.Context, endpoint domain.Endpoint, creds domain.Credentials, timeout time.Duration) (ports.ShellConn, error) {
	addr := net.JoinHostPort(endpoint.Hostname, strconv.Itoa(endpoint.Port))

	config := &ssh.ClientConfig{
		User:    endpoint.Username,
		Auth:    []ssh.AuthMethod{ssh.Password(creds.Password)},
		Timeout: timeout,
		// The wargame hosts rotate keys; the original tool accepted them
		// automatically as well.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	dialer := net.Dialer{Timeout: timeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(err)
	}

	// Bound the handshake too, not just the TCP connect.
	if err := raw.SetDeadline(time.Now().Add(timeout)); err != nil {
		_ = raw.Close()
		return nil, classify(err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(raw, addr, config)
	if err != nil {
		_ = raw.Close()
		return nil, classify(err)
	}
	if err := raw.SetDeadline(time.Time{}); err != nil {
		_ = sshConn.Close()
		return nil, classify(err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: new session: %v", domain.ErrProtocol, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", 40, 120, modes); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("%w: request pty: %v", domain.ErrProtocol, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("%w: stdin pipe: %v", domain.ErrProtocol, err)
	}

	pr, pw := io.Pipe()
	session.Stdout = pw
	session.Stderr = pw

	if err := session.Shell(); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("%w: start shell: %v", domain.ErrProtocol, err)
	}

	conn := &shellConn{
		client:  client,
		session: session,
		stdin:   stdin,
		reader:  pr,
	}

	go func() {
		// The remote shell exiting ends the output stream.
		err := session.Wait()
		_ = pw.CloseWithError(err)
	}()

	return conn, nil
}

type shellConn struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	reader  *io.PipeReader

	closeOnce sync.Once
	closeErr  error
}

func (c *shellConn) Write(p []byte) error {
	if _, err := c.stdin.Write(p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionClosed, err)
	}
	return nil
}

func (c *shellConn) Reader() io.Reader { return c.reader }

func (c *shellConn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
		_ = c.session.Close()
		c.closeErr = c.client.Close()
		_ = c.reader.Close()
	})
	return c.closeErr
}

// classify maps transport-level failures onto the domain taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isAuthError(err):
		return fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	case isUnreachable(err):
		return fmt.Errorf("%w: %v", domain.ErrNetworkUnreachable, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}
}

func isAuthError(err error) bool {
	// x/crypto/ssh reports rejected credentials only through the message.
	return strings.Contains(err.Error(), "unable to authenticate") ||
		strings.Contains(err.Error(), "permission denied")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "i/o timeout")
}

func isUnreachable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ECONNRESET)
}
