package plugin

import (
	"presencesim/internal/clock"
	"presencesim/internal/daylight"
	"presencesim/internal/entry"
	"presencesim/internal/ha"
	"presencesim/internal/states"

	"go.uber.org/zap"
)

// Context provides dependencies to plugins during initialization.
// It wraps the core services needed by all plugins in a single struct
// for cleaner constructor signatures.
type Context struct {
	// HAClient provides access to Home Assistant for service calls,
	// history queries and entity state subscriptions.
	HAClient ha.HAClient

	// Entries is the config entry store. Plugins read their per-instance
	// settings from here and resolve them against their own schema.
	Entries *entry.Store

	// States is the shared entity state tracker, used for entity
	// inventory and capability lookups.
	States *states.Tracker

	// Clock abstracts time so playback schedules can be tested.
	Clock clock.Clock

	// Daylight answers whether it is dark at the configured location.
	Daylight *daylight.Calculator

	// Logger is a structured logger for the plugin to use.
	// Plugins should use logger.Named("pluginname") for namespacing.
	Logger *zap.Logger

	// ReadOnly indicates whether the application is in read-only mode.
	// When true, plugins should log what they would do but not make
	// actual changes to Home Assistant entities.
	ReadOnly bool
}
