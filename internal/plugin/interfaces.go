// Package plugin provides the plugin system interfaces and registry for the
// presence simulator host. Plugins register themselves with the global
// registry using init() functions, allowing compile-time plugin selection
// and override mechanisms for private implementations.
package plugin

// Plugin is the core interface that all plugins must implement.
// A plugin owns the automation logic for one concern (presence playback,
// say) across every config entry that enables it.
type Plugin interface {
	// Name returns the unique identifier for this plugin.
	// This name is used for registration and logging.
	Name() string

	// Start begins the plugin's operation.
	// - Sets up subscriptions to state changes
	// - Starts any background goroutines
	// - Returns error if initialization fails
	Start() error

	// Stop gracefully shuts down the plugin.
	// - Unsubscribes from all state changes
	// - Stops any background goroutines
	// - Releases resources
	Stop()
}

// Resettable is an optional interface for plugins that can re-evaluate their
// state on demand, for example after a config entry's options change.
type Resettable interface {
	// Reset re-evaluates all conditions and recalculates state.
	Reset() error
}

// StatusProvider is an optional interface for plugins that expose their
// per-entry runtime status for the HTTP API.
type StatusProvider interface {
	// Status returns a serializable view of what the plugin is doing.
	Status() interface{}
}

// Factory is a function that creates a new plugin instance given a context.
// Factories are registered with the global registry and called during
// application startup to instantiate plugins.
type Factory func(ctx *Context) (Plugin, error)
