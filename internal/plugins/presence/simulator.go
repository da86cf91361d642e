package presence

import (
	"fmt"
	"strings"
	"sync"

	"presencesim/internal/clock"
	"presencesim/internal/daylight"
	"presencesim/internal/entry"
	"presencesim/internal/ha"
	"presencesim/internal/states"

	"go.uber.org/zap"
)

// Simulator runs presence playback for one config entry. Its lifecycle is
// driven by an input_boolean toggle in Home Assistant: on starts historical
// playback, off stops it.
type Simulator struct {
	entryID      string
	title        string
	switchEntity string

	client   ha.HAClient
	states   *states.Tracker
	clock    clock.Clock
	daylight *daylight.Calculator
	listener *SwitchListener
	logger   *zap.Logger
	readOnly bool

	replayLog *ReplayLog

	mu       sync.Mutex
	settings Settings
	running  bool
	stopCh   chan struct{}
	watch    *WatchHandle

	// contextIndex has a single owner, the playback goroutine, so it needs
	// no locking. It wraps the packed suffix space long before it wraps
	// itself; collisions across that horizon are accepted.
	contextIndex uint64
}

// NewSimulator creates a simulator for the given config entry, resolving its
// settings immediately so a broken entry fails fast.
func NewSimulator(
	e *entry.ConfigEntry,
	client ha.HAClient,
	tracker *states.Tracker,
	clk clock.Clock,
	dl *daylight.Calculator,
	listener *SwitchListener,
	logger *zap.Logger,
	readOnly bool,
) (*Simulator, error) {
	settings, err := ResolveSettings(e)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.ID, err)
	}

	return &Simulator{
		entryID:      e.ID,
		title:        e.Title,
		switchEntity: "input_boolean.presence_sim_" + slugify(e.Title),
		client:       client,
		states:       tracker,
		clock:        clk,
		daylight:     dl,
		listener:     listener,
		logger:       logger.With(zap.String("entry", e.Title)),
		readOnly:     readOnly,
		replayLog:    NewReplayLog(defaultReplayLogSize),
		settings:     settings,
	}, nil
}

// SwitchEntity returns the input_boolean entity that toggles this simulator
func (s *Simulator) SwitchEntity() string {
	return s.switchEntity
}

// Start watches the toggle switch and begins playback if it is already on
func (s *Simulator) Start() error {
	watch, err := s.listener.Watch(s.switchEntity, s.onSwitchChange)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.watch = watch
	s.mu.Unlock()

	state, err := s.client.GetState(s.switchEntity)
	if err != nil {
		s.logger.Warn("Toggle switch not found in Home Assistant, waiting for it to appear",
			zap.String("entity_id", s.switchEntity))
		return nil
	}

	if state.State == "on" {
		s.startPlayback()
	}
	return nil
}

// Stop releases the switch watch and halts playback
func (s *Simulator) Stop() {
	s.mu.Lock()
	watch := s.watch
	s.watch = nil
	s.mu.Unlock()

	if watch != nil {
		watch.Release()
	}
	s.stopPlayback()
}

// ApplyOptions re-resolves settings after an options update. A running
// playback loop is restarted so a changed interval takes effect. If the new
// options fail validation, playback halts and the toggle switch is turned
// off so it does not claim a simulation that cannot run.
func (s *Simulator) ApplyOptions(e *entry.ConfigEntry) error {
	settings, err := ResolveSettings(e)
	if err != nil {
		s.stopPlayback()
		s.forceSwitchOff()
		return fmt.Errorf("entry %s: %w", e.ID, err)
	}

	s.mu.Lock()
	s.settings = settings
	restart := s.running
	s.mu.Unlock()

	s.logger.Info("Settings updated",
		zap.Int("playback_days", settings.PlaybackDays),
		zap.Duration("interval", settings.Interval))

	if restart {
		s.stopPlayback()
		s.startPlayback()
	}
	return nil
}

// forceSwitchOff flips the toggle off in Home Assistant
func (s *Simulator) forceSwitchOff() {
	if s.readOnly {
		return
	}
	name := strings.TrimPrefix(s.switchEntity, "input_boolean.")
	if err := s.client.SetInputBoolean(name, false); err != nil {
		s.logger.Warn("Failed to turn simulation switch off", zap.Error(err))
	}
}

func (s *Simulator) onSwitchChange(on bool) {
	if on {
		s.logger.Info("Simulation switch turned on")
		s.startPlayback()
	} else {
		s.logger.Info("Simulation switch turned off")
		s.stopPlayback()
	}
}

func (s *Simulator) startPlayback() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	interval := s.settings.Interval
	s.mu.Unlock()

	// Create the ticker here so a tick cannot be missed between the switch
	// flipping on and the playback goroutine starting.
	ticker := s.clock.NewTicker(interval)

	s.logger.Info("Starting presence playback", zap.Duration("interval", interval))
	go s.run(stopCh, ticker)
}

func (s *Simulator) stopPlayback() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.logger.Info("Stopped presence playback")
}

func (s *Simulator) run(stop chan struct{}, ticker clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C():
			// A tick can race with the stop signal; stop wins
			select {
			case <-stop:
				return
			default:
			}
			s.replayTick(now)
		case <-stop:
			return
		}
	}
}

// nextContext mints the correlation context attached to a replayed action.
// Called only from the playback goroutine.
func (s *Simulator) nextContext(which string) ha.Context {
	index := s.contextIndex
	s.contextIndex++
	return ha.NewContext(s.title, which, index, nil)
}

// Status is the serializable runtime view of one simulator
type Status struct {
	EntryID      string           `json:"entry_id"`
	Title        string           `json:"title"`
	SwitchEntity string           `json:"switch_entity"`
	Running      bool             `json:"running"`
	PlaybackDays int              `json:"playback_days"`
	Interval     string           `json:"interval"`
	Replayed     int              `json:"replayed"`
	Recent       []ReplayedAction `json:"recent,omitempty"`
}

// Status reports the simulator's current state for the HTTP API
func (s *Simulator) Status() Status {
	s.mu.Lock()
	running := s.running
	settings := s.settings
	s.mu.Unlock()

	actions := s.replayLog.Actions()
	recent := actions
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	return Status{
		EntryID:      s.entryID,
		Title:        s.title,
		SwitchEntity: s.switchEntity,
		Running:      running,
		PlaybackDays: settings.PlaybackDays,
		Interval:     settings.Interval.String(),
		Replayed:     len(actions),
		Recent:       recent,
	}
}

// slugify reduces an entry title to an entity-ID-safe suffix
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
