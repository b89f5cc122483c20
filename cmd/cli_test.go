package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bnema/bandit-cli/internal/domain"
)

func TestSessionAddListRemove(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "session", "add", "--user", "bandit0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved session")

	fields := strings.Fields(stdout)
	require.GreaterOrEqual(t, len(fields), 3)
	id := fields[2]

	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bandit0@bandit.labs.overthewire.org:2220")
	assert.Contains(t, stdout, id)

	stdout, _, err = executeCLI(t, home, "session", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed session")

	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no saved sessions")
}

func TestSessionAddRequiresUserFlag(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"user\" not set")
}

func TestSessionRemoveUnknownIDFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "rm", "no-such-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionListOrdersMostRecentFirst(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "add", "--user", "bandit0", "--name", "first")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "session", "add", "--user", "bandit1", "--name", "second")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(stdout, "second"), strings.Index(stdout, "first"))
}

func TestOfflineModePersistsAcrossInvocations(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "offline")
	require.NoError(t, err)
	assert.Contains(t, stdout, "online")

	stdout, _, err = executeCLI(t, home, "offline", "on")
	require.NoError(t, err)
	assert.Contains(t, stdout, "offline")

	// A fresh invocation picks the mode back up from the marker file.
	stdout, _, err = executeCLI(t, home, "offline")
	require.NoError(t, err)
	assert.Contains(t, stdout, "offline")

	stdout, _, err = executeCLI(t, home, "offline", "off")
	require.NoError(t, err)
	assert.Contains(t, stdout, "online")
}

func TestOfflineToggleFlipsMode(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "offline", "toggle")
	require.NoError(t, err)
	assert.Contains(t, stdout, "offline")

	stdout, _, err = executeCLI(t, home, "offline", "toggle")
	require.NoError(t, err)
	assert.Contains(t, stdout, "online")
}

func TestHistoryStartsEmpty(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no history")
}

func TestHintWhileOfflineWithoutCacheFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "offline", "on")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "hint", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestConnectUnknownSessionFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BANDIT_PASSWORD", "unused")

	_, _, err := executeCLI(t, home, "connect", "no-such-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConnectWhileOfflineFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BANDIT_PASSWORD", "unused")

	stdout, _, err := executeCLI(t, home, "session", "add", "--user", "bandit0")
	require.NoError(t, err)
	id := strings.Fields(stdout)[2]

	_, _, err = executeCLI(t, home, "offline", "on")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "connect", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOffline)
}

func TestVersionPrintsVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestFailingCommandStillShutsDown(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "rm", "missing")
	require.Error(t, err)

	// Shutdown must run even though RunE failed; the history writer
	// goroutine leaking here would mean it was skipped.
	goleak.VerifyNone(t)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root, shutdown := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	shutdown()
	return stdout.String(), stderr.String(), err
}
