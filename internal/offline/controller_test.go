package offline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerStartsOnline(t *testing.T) {
	t.Parallel()

	controller := NewController()
	assert.False(t, controller.IsOffline())
	assert.Equal(t, Online, controller.Mode())
}

func TestToggleFlipsBothWays(t *testing.T) {
	t.Parallel()

	controller := NewController()

	assert.Equal(t, Offline, controller.Toggle())
	assert.True(t, controller.IsOffline())

	assert.Equal(t, Online, controller.Toggle())
	assert.False(t, controller.IsOffline())
}

func TestSetOfflineIsIdempotent(t *testing.T) {
	t.Parallel()

	controller := NewController()

	controller.SetOffline(true)
	controller.SetOffline(true)
	assert.True(t, controller.IsOffline())

	controller.SetOffline(false)
	controller.SetOffline(false)
	assert.False(t, controller.IsOffline())
}

func TestSubscribeSeesModeChange(t *testing.T) {
	t.Parallel()

	controller := NewController()
	changes := controller.Subscribe()

	controller.Toggle()

	select {
	case mode := <-changes:
		assert.Equal(t, Offline, mode)
	default:
		t.Fatal("expected a buffered mode change")
	}
}

func TestConcurrentTogglesLeaveConsistentState(t *testing.T) {
	t.Parallel()

	controller := NewController()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			controller.Toggle()
		}()
	}
	wg.Wait()

	// An even number of toggles always lands back online.
	require.Equal(t, Online, controller.Mode())
}
