package presence

import (
	"fmt"
	"sync"

	"presencesim/internal/clock"
	"presencesim/internal/daylight"
	"presencesim/internal/entry"
	"presencesim/internal/ha"
	"presencesim/internal/states"

	"go.uber.org/zap"
)

// Manager owns one Simulator per config entry and shares a single switch
// listener between them.
type Manager struct {
	client   ha.HAClient
	entries  *entry.Store
	states   *states.Tracker
	clock    clock.Clock
	daylight *daylight.Calculator
	logger   *zap.Logger
	readOnly bool

	listener *SwitchListener

	mu         sync.Mutex
	simulators map[string]*Simulator
}

// NewManager creates the presence plugin manager
func NewManager(
	client ha.HAClient,
	entries *entry.Store,
	tracker *states.Tracker,
	clk clock.Clock,
	dl *daylight.Calculator,
	logger *zap.Logger,
	readOnly bool,
) *Manager {
	log := logger.Named("presence")
	return &Manager{
		client:     client,
		entries:    entries,
		states:     tracker,
		clock:      clk,
		daylight:   dl,
		logger:     log,
		readOnly:   readOnly,
		listener:   NewSwitchListener(client, log),
		simulators: make(map[string]*Simulator),
	}
}

// Start creates and starts a simulator for every config entry. An entry
// whose options fail validation is skipped with an error log; the rest still
// run.
func (m *Manager) Start() error {
	m.logger.Info("Starting Presence Manager")

	all := m.entries.All()
	started := 0
	for _, e := range all {
		sim, err := NewSimulator(e, m.client, m.states, m.clock, m.daylight, m.listener, m.logger, m.readOnly)
		if err != nil {
			m.logger.Error("Skipping entry with invalid configuration",
				zap.String("entry_id", e.ID),
				zap.Error(err))
			m.turnSwitchOff(e)
			continue
		}

		if err := sim.Start(); err != nil {
			m.logger.Error("Failed to start simulator",
				zap.String("entry_id", e.ID),
				zap.Error(err))
			continue
		}

		m.mu.Lock()
		m.simulators[e.ID] = sim
		m.mu.Unlock()
		started++
	}

	if len(all) > 0 && started == 0 {
		return fmt.Errorf("no simulator could be started (%d entries)", len(all))
	}

	m.logger.Info("Presence Manager started",
		zap.Int("entries", len(all)),
		zap.Int("simulators", started))
	return nil
}

// turnSwitchOff forces a skipped entry's toggle off so the switch in Home
// Assistant does not claim a simulation that never started.
func (m *Manager) turnSwitchOff(e *entry.ConfigEntry) {
	if m.readOnly {
		return
	}
	name := "presence_sim_" + slugify(e.Title)
	if err := m.client.SetInputBoolean(name, false); err != nil {
		m.logger.Warn("Failed to turn simulation switch off",
			zap.String("entry_id", e.ID),
			zap.Error(err))
	}
}

// Stop halts all simulators
func (m *Manager) Stop() {
	m.logger.Info("Stopping Presence Manager")

	m.mu.Lock()
	sims := make([]*Simulator, 0, len(m.simulators))
	for _, s := range m.simulators {
		sims = append(sims, s)
	}
	m.simulators = make(map[string]*Simulator)
	m.mu.Unlock()

	for _, s := range sims {
		s.Stop()
	}

	m.logger.Info("Presence Manager stopped")
}

// Reset re-resolves every simulator's settings from the entry store,
// picking up option changes.
func (m *Manager) Reset() error {
	m.mu.Lock()
	sims := make(map[string]*Simulator, len(m.simulators))
	for id, s := range m.simulators {
		sims[id] = s
	}
	m.mu.Unlock()

	for id, sim := range sims {
		e, ok := m.entries.Get(id)
		if !ok {
			continue
		}
		if err := sim.ApplyOptions(e); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the runtime status of every simulator
func (m *Manager) Status() []Status {
	m.mu.Lock()
	sims := make([]*Simulator, 0, len(m.simulators))
	for _, s := range m.simulators {
		sims = append(sims, s)
	}
	m.mu.Unlock()

	out := make([]Status, 0, len(sims))
	for _, s := range sims {
		out = append(out, s.Status())
	}
	return out
}
