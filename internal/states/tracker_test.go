package states

import (
	"testing"

	"presencesim/internal/ha"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTracker(t *testing.T) (*Tracker, *ha.MockClient) {
	t.Helper()

	client := ha.NewMockClient()
	client.SetState("light.living_room", "off", map[string]interface{}{
		"friendly_name":      "Living Room",
		"supported_features": float64(33),
	})
	client.SetState("light.porch", "on", map[string]interface{}{
		"supported_features": float64(0),
	})
	client.SetState("automation.evening_scene", "on", nil)
	client.SetState("sensor.outside_temp", "17.5", nil)

	logger, _ := zap.NewDevelopment()
	return NewTracker(client, logger), client
}

func TestTracker_Sync(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.Sync("light", "automation"))

	// Only the requested domains are cached
	_, ok := tracker.Get("light.living_room")
	assert.True(t, ok)
	_, ok = tracker.Get("sensor.outside_temp")
	assert.False(t, ok)

	assert.Equal(t, []string{"light.living_room", "light.porch"}, tracker.EntityIDs("light"))
	assert.Equal(t, []string{"automation.evening_scene"}, tracker.EntityIDs("automation"))
}

func TestTracker_FollowsStateChanges(t *testing.T) {
	tracker, client := newTestTracker(t)
	require.NoError(t, tracker.Sync("light"))

	client.SimulateStateChange("light.porch", "off", nil)

	s, ok := tracker.Get("light.porch")
	require.True(t, ok)
	assert.Equal(t, "off", s.State)
}

func TestTracker_SupportedFeatures(t *testing.T) {
	tracker, _ := newTestTracker(t)
	require.NoError(t, tracker.Sync("light"))

	features := tracker.SupportedFeatures("light.living_room")
	assert.NotZero(t, features&FeatureBrightness)
	assert.NotZero(t, features&FeatureTransition)
	assert.Zero(t, features&FeatureColorTemp)

	assert.Zero(t, tracker.SupportedFeatures("light.porch"))
	assert.Zero(t, tracker.SupportedFeatures("light.missing"))
}
