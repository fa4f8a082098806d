package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/jupstaker/pkg/clock"
)

type manualTimer struct {
	tick      chan time.Time
	requested []time.Duration
}

func (m *manualTimer) After(d time.Duration) <-chan time.Time {
	m.requested = append(m.requested, d)
	return m.tick
}

func TestWait(t *testing.T) {
	t.Parallel()

	t.Run("it blocks until the timer fires", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := &manualTimer{tick: make(chan time.Time, 1)}
		timer.tick <- time.Now()

		// Act
		err := clock.Wait(t.Context(), timer, 5*time.Second)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{5 * time.Second}, timer.requested)
	})

	t.Run("it returns the context error when cancelled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := &manualTimer{tick: make(chan time.Time)}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		// Act
		err := clock.Wait(ctx, timer, time.Hour)

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("it skips the timer for non-positive durations", func(t *testing.T) {
		t.Parallel()

		// Arrange
		timer := &manualTimer{tick: make(chan time.Time)}

		// Act
		err := clock.Wait(t.Context(), timer, 0)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, timer.requested)
	})

	t.Run("it works with the system clock", func(t *testing.T) {
		t.Parallel()

		// Act
		err := clock.Wait(t.Context(), clock.SystemClock{}, time.Millisecond)

		// Assert
		require.NoError(t, err)
	})
}
