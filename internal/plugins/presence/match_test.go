package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"%zigbee2mqtt/Feller%", "automation.zigbee2mqtt_feller_livingroom", false},
		{"%zigbee2mqtt/Feller%", "zigbee2mqtt/Feller Living Room", true},
		{"%zigbee2mqtt/feller%", "Zigbee2MQTT/Feller Hallway", true},
		{"light.%", "light.living_room", true},
		{"light.%", "switch.living_room", false},
		{"light._allway", "light.hallway", true},
		{"light._allway", "light.stairway", false},
		{"%", "anything at all", true},
		{"%", "", true},
		{"", "", true},
		{"", "x", false},
		{"exact", "exact", true},
		{"exact", "exac", false},
		{"a%b%c", "aXXbYYc", true},
		{"a%b%c", "acb", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, likeMatch(tt.pattern, tt.input))
		})
	}
}
