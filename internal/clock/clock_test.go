package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClock_Now(t *testing.T) {
	start := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}

func TestMockClock_TickerFiresPerInterval(t *testing.T) {
	start := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	ticker := c.NewTicker(time.Minute)
	defer ticker.Stop()

	c.Advance(time.Minute)
	select {
	case tick := <-ticker.C():
		assert.Equal(t, start.Add(time.Minute), tick)
	default:
		t.Fatal("expected a tick after advancing one interval")
	}

	// Multiple elapsed intervals with a lagging reader collapse into the
	// buffered tick, like time.Ticker.
	c.Advance(3 * time.Minute)
	select {
	case <-ticker.C():
	default:
		t.Fatal("expected a tick after advancing three intervals")
	}
	select {
	case tick := <-ticker.C():
		t.Fatalf("unexpected extra tick at %v", tick)
	default:
	}
}

func TestMockClock_StoppedTickerStaysQuiet(t *testing.T) {
	c := NewMockClock(time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC))

	ticker := c.NewTicker(time.Minute)
	ticker.Stop()

	c.Advance(5 * time.Minute)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestMockClock_Set(t *testing.T) {
	start := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	ticker := c.NewTicker(time.Minute)
	defer ticker.Stop()

	forward := start.Add(90 * time.Second)
	c.Set(forward)
	assert.Equal(t, forward, c.Now())

	select {
	case <-ticker.C():
	default:
		t.Fatal("moving forward past an interval should tick")
	}

	// Moving backwards just repositions the clock
	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestRealClock_Ticker(t *testing.T) {
	c := NewRealClock()

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}

	require.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
