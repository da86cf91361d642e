package presence

import (
	"time"

	"presencesim/internal/entry"
)

// Option keys for the presence simulator schema
const (
	confPlaybackAutomation = "playback_automation"
	confAutomationFilter   = "automation_filter"
	confLightsFilter       = "lights_filter"
	confPlaybackDays       = "playback_days"
	confInterval           = "interval"
	confOnlyWhenDark       = "only_when_dark"
)

const (
	defaultAutomationFilter   = "%zigbee2mqtt/Feller%"
	defaultPlaybackDays       = 7
	defaultIntervalSeconds    = 300
	defaultPlaybackAutomation = true
	defaultOnlyWhenDark       = false
)

// Schema declares the per-entry options, their defaults and validation.
// The interval is accepted as a time period ("0:05:00", a number of seconds,
// or a time.Duration) and stored as a plain second count.
func Schema() entry.Schema {
	return entry.Schema{
		Fields: []entry.Field{
			{Key: confPlaybackAutomation, Default: defaultPlaybackAutomation, Validate: entry.Boolean},
			{Key: confAutomationFilter, Default: defaultAutomationFilter, Validate: entry.String},
			{Key: confLightsFilter, Default: "", Validate: entry.String},
			{Key: confPlaybackDays, Default: defaultPlaybackDays, Validate: entry.IntBetween(1, 14)},
			{Key: confInterval, Default: defaultIntervalSeconds, Validate: entry.PositiveInt},
			{Key: confOnlyWhenDark, Default: defaultOnlyWhenDark, Validate: entry.Boolean},
		},
		Coercions: map[string]entry.Coercion{
			confInterval: {Parse: entry.TimePeriod, Normalize: entry.DurationSeconds},
		},
	}
}

// Settings is the typed view of an entry's resolved options.
type Settings struct {
	// PlaybackAutomation enables replaying automation triggers alongside
	// light activity.
	PlaybackAutomation bool

	// AutomationFilter is a SQL-LIKE pattern selecting which automations
	// take part. Nil means automations are not filtered by name.
	AutomationFilter *string

	// LightsFilter is a SQL-LIKE pattern selecting which lights take part.
	// Nil or empty means every light does.
	LightsFilter *string

	// PlaybackDays is how many days back the replayed history comes from.
	PlaybackDays int

	// Interval is how often a playback slice is fetched and replayed.
	Interval time.Duration

	// OnlyWhenDark suppresses playback during local daylight.
	OnlyWhenDark bool
}

// ResolveSettings resolves a config entry against the schema and maps the
// result into a Settings value. The "None" marker is legal on any key and
// resolves to nil; a typed key cleared that way falls back to its default.
func ResolveSettings(e *entry.ConfigEntry) (Settings, error) {
	resolved, err := e.Resolve(Schema())
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		PlaybackAutomation: boolOr(resolved, confPlaybackAutomation, defaultPlaybackAutomation),
		PlaybackDays:       intOr(resolved, confPlaybackDays, defaultPlaybackDays),
		Interval:           time.Duration(intOr(resolved, confInterval, defaultIntervalSeconds)) * time.Second,
		OnlyWhenDark:       boolOr(resolved, confOnlyWhenDark, defaultOnlyWhenDark),
	}

	if v, ok := resolved[confAutomationFilter].(string); ok {
		s.AutomationFilter = &v
	}
	if v, ok := resolved[confLightsFilter].(string); ok && v != "" {
		s.LightsFilter = &v
	}

	return s, nil
}

func boolOr(resolved map[string]interface{}, key string, fallback bool) bool {
	if v, ok := resolved[key].(bool); ok {
		return v
	}
	return fallback
}

func intOr(resolved map[string]interface{}, key string, fallback int) int {
	if v, ok := resolved[key].(int); ok {
		return v
	}
	return fallback
}
