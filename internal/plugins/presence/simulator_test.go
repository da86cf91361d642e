package presence

import (
	"testing"
	"time"

	"presencesim/internal/clock"
	"presencesim/internal/daylight"
	"presencesim/internal/entry"
	"presencesim/internal/ha"
	"presencesim/internal/states"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type simFixture struct {
	sim     *Simulator
	client  *ha.MockClient
	clock   *clock.MockClock
	tracker *states.Tracker
	start   time.Time
}

func newSimFixture(t *testing.T, options map[string]interface{}, readOnly bool) *simFixture {
	t.Helper()

	client := ha.NewMockClient()
	client.SetState("input_boolean.presence_sim_downstairs", "off", nil)
	client.SetState("light.living_room", "off", map[string]interface{}{
		"supported_features": float64(33),
	})
	client.SetState("light.porch", "off", map[string]interface{}{
		"supported_features": float64(0),
	})
	client.SetState("automation.feller_curtains", "on", map[string]interface{}{
		"friendly_name": "zigbee2mqtt/Feller Curtains",
	})
	client.SetState("automation.morning_coffee", "on", map[string]interface{}{
		"friendly_name": "Morning Coffee",
	})

	logger, _ := zap.NewDevelopment()
	tracker := states.NewTracker(client, logger)
	require.NoError(t, tracker.Sync("light", "automation"))

	startAt := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	mockClock := clock.NewMockClock(startAt)

	if options == nil {
		options = map[string]interface{}{}
	}
	if _, ok := options["interval"]; !ok {
		options["interval"] = 60
	}
	if _, ok := options["playback_days"]; !ok {
		options["playback_days"] = 1
	}
	e := &entry.ConfigEntry{ID: "e1", Title: "Downstairs", Options: options}

	dl := daylight.NewCalculator(47.3769, 8.5417, logger)
	listener := NewSwitchListener(client, logger)

	sim, err := NewSimulator(e, client, tracker, mockClock, dl, listener, logger, readOnly)
	require.NoError(t, err)
	require.NoError(t, sim.Start())

	return &simFixture{
		sim:     sim,
		client:  client,
		clock:   mockClock,
		tracker: tracker,
		start:   startAt,
	}
}

// yesterday maps an offset into the first tick's mirror window one
// playback day back
func (f *simFixture) yesterday(offset time.Duration) time.Time {
	return f.start.Add(-24 * time.Hour).Add(offset)
}

func (f *simFixture) waitForCalls(t *testing.T, n int) []ha.ServiceCall {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.client.GetServiceCalls()) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return f.client.GetServiceCalls()
}

func TestSimulator_ReplaysHistory(t *testing.T) {
	f := newSimFixture(t, nil, false)

	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(30 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
	})
	f.client.SetHistory("automation.feller_curtains", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(10 * time.Second), Context: &ha.Context{ID: "host-uuid-2"}},
	})
	// Does not match the default automation filter
	f.client.SetHistory("automation.morning_coffee", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(15 * time.Second), Context: &ha.Context{ID: "host-uuid-3"}},
	})

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)

	calls := f.waitForCalls(t, 2)
	require.Len(t, calls, 2)

	assert.Equal(t, "light", calls[0].Domain)
	assert.Equal(t, "turn_on", calls[0].Service)
	assert.Equal(t, "light.living_room", calls[0].Data["entity_id"])
	// supported_features 33 includes transition
	assert.Equal(t, 1, calls[0].Data["transition"])

	assert.Equal(t, "automation", calls[1].Domain)
	assert.Equal(t, "trigger", calls[1].Service)
	assert.Equal(t, "automation.feller_curtains", calls[1].Data["entity_id"])

	for _, call := range calls {
		require.NotNil(t, call.Context)
		assert.True(t, ha.IsOwnContext(call.Context))
	}

	status := f.sim.Status()
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.Replayed)
}

func TestSimulator_SkipsOwnActivity(t *testing.T) {
	f := newSimFixture(t, nil, false)

	ownCtx := ha.NewContext("Downstairs", "playback", 3, nil)
	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(20 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
		{State: "off", LastChanged: f.yesterday(40 * time.Second), Context: &ownCtx},
	})

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)

	calls := f.waitForCalls(t, 1)
	require.Len(t, calls, 1)
	assert.Equal(t, "turn_on", calls[0].Service)
}

func TestSimulator_SwitchOffStopsPlayback(t *testing.T) {
	f := newSimFixture(t, nil, false)

	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(30 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
	})

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)
	f.waitForCalls(t, 1)

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "off", nil)
	f.client.ClearServiceCalls()

	f.clock.Advance(60 * time.Second)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.client.GetServiceCalls())
	assert.False(t, f.sim.Status().Running)
}

func TestSimulator_ReadOnly(t *testing.T) {
	f := newSimFixture(t, nil, true)

	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(30 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
	})

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)

	require.Eventually(t, func() bool {
		return f.sim.Status().Replayed == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, f.client.GetServiceCalls())

	status := f.sim.Status()
	require.Len(t, status.Recent, 1)
	assert.True(t, status.Recent[0].ReadOnly)
}

func TestSimulator_LightsFilter(t *testing.T) {
	f := newSimFixture(t, map[string]interface{}{
		"lights_filter":       "light.porch",
		"playback_automation": false,
	}, false)

	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(30 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
	})
	f.client.SetHistory("light.porch", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(35 * time.Second), Context: &ha.Context{ID: "host-uuid-2"}},
	})

	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)

	calls := f.waitForCalls(t, 1)
	require.Len(t, calls, 1)
	assert.Equal(t, "light.porch", calls[0].Data["entity_id"])
	// supported_features 0: no transition data
	assert.NotContains(t, calls[0].Data, "transition")
}

func TestSimulator_OnlyWhenDark(t *testing.T) {
	f := newSimFixture(t, map[string]interface{}{
		"only_when_dark": true,
	}, false)

	f.client.SetHistory("light.living_room", []ha.HistoryState{
		{State: "on", LastChanged: f.yesterday(30 * time.Second), Context: &ha.Context{ID: "host-uuid-1"}},
	})

	// 20:00 UTC in January is dark in Zurich, so the first tick replays
	f.client.SimulateStateChange("input_boolean.presence_sim_downstairs", "on", nil)
	f.clock.Advance(60 * time.Second)
	f.waitForCalls(t, 1)
}

func TestSimulator_ReplayPointUnknownEntity(t *testing.T) {
	f := newSimFixture(t, nil, false)

	acted := f.sim.replayPoint(f.start, "light.ghost", ha.HistoryState{
		State:       "on",
		LastChanged: f.yesterday(30 * time.Second),
	})
	assert.False(t, acted)
	assert.Empty(t, f.client.GetServiceCalls())
}

func TestSimulator_ApplyOptions(t *testing.T) {
	f := newSimFixture(t, nil, false)

	e := &entry.ConfigEntry{
		ID:    "e1",
		Title: "Downstairs",
		Options: map[string]interface{}{
			"interval":      "0:02:00",
			"playback_days": 2,
		},
	}
	require.NoError(t, f.sim.ApplyOptions(e))

	status := f.sim.Status()
	assert.Equal(t, 2, status.PlaybackDays)
	assert.Equal(t, "2m0s", status.Interval)

	bad := &entry.ConfigEntry{
		ID:      "e1",
		Title:   "Downstairs",
		Options: map[string]interface{}{"playback_days": 0},
	}
	f.client.ClearServiceCalls()
	assert.Error(t, f.sim.ApplyOptions(bad))

	// Invalid options turn the toggle off alongside the error
	calls := f.client.GetServiceCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "input_boolean", calls[0].Domain)
	assert.Equal(t, "turn_off", calls[0].Service)
	assert.Equal(t, "input_boolean.presence_sim_downstairs", calls[0].Data["entity_id"])
}
