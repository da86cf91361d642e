package presence

import (
	"sync"
	"time"
)

// defaultReplayLogSize bounds how many replayed actions are kept per entry
const defaultReplayLogSize = 100

// ReplayedAction records one action the playback engine performed (or would
// have performed in read-only mode).
type ReplayedAction struct {
	Time           time.Time `json:"time"`
	HistoricalTime time.Time `json:"historical_time"`
	EntityID       string    `json:"entity_id"`
	Domain         string    `json:"domain"`
	Service        string    `json:"service"`
	ContextID      string    `json:"context_id"`
	ReadOnly       bool      `json:"read_only,omitempty"`
}

// ReplayLog is a bounded record of recent playback actions, kept for the
// status API. Oldest entries are dropped first.
type ReplayLog struct {
	mu      sync.Mutex
	actions []ReplayedAction
	max     int
}

// NewReplayLog creates a log holding at most max actions
func NewReplayLog(max int) *ReplayLog {
	if max <= 0 {
		max = defaultReplayLogSize
	}
	return &ReplayLog{max: max}
}

// Add appends an action, evicting the oldest when full
func (l *ReplayLog) Add(a ReplayedAction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.actions = append(l.actions, a)
	if len(l.actions) > l.max {
		l.actions = l.actions[len(l.actions)-l.max:]
	}
}

// Actions returns a copy of the recorded actions, oldest first
func (l *ReplayLog) Actions() []ReplayedAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ReplayedAction, len(l.actions))
	copy(out, l.actions)
	return out
}

// Len returns the number of recorded actions
func (l *ReplayLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions)
}
