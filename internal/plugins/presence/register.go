package presence

import (
	"fmt"

	"presencesim/internal/plugin"
)

func init() {
	plugin.Register(plugin.PluginInfo{
		Name:        "presence",
		Description: "Replays historical light and automation activity to simulate presence",
		Priority:    plugin.PriorityDefault,
		Order:       50,
		Factory:     createPlugin,
	})
}

// createPlugin builds the presence manager from the plugin context.
func createPlugin(ctx *plugin.Context) (plugin.Plugin, error) {
	if ctx.HAClient == nil || ctx.Entries == nil || ctx.States == nil {
		return nil, fmt.Errorf("presence plugin requires HA client, entry store and state tracker")
	}

	manager := NewManager(ctx.HAClient, ctx.Entries, ctx.States, ctx.Clock, ctx.Daylight, ctx.Logger, ctx.ReadOnly)
	return &pluginAdapter{manager: manager}, nil
}

// pluginAdapter wraps the Manager to implement the plugin.Plugin interface.
type pluginAdapter struct {
	manager *Manager
}

func (p *pluginAdapter) Name() string {
	return "presence"
}

func (p *pluginAdapter) Start() error {
	return p.manager.Start()
}

func (p *pluginAdapter) Stop() {
	p.manager.Stop()
}

// Implement plugin.Resettable
func (p *pluginAdapter) Reset() error {
	return p.manager.Reset()
}

// Implement plugin.StatusProvider
func (p *pluginAdapter) Status() interface{} {
	return p.manager.Status()
}

// GetManager returns the underlying Manager instance for host wiring that
// needs the full API (the status server, options updates).
func (p *pluginAdapter) GetManager() *Manager {
	return p.manager
}
