// Package states caches entity states from Home Assistant so filter matching
// and capability lookups do not need a round-trip per query.
package states

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"presencesim/internal/ha"

	"go.uber.org/zap"
)

// Light entity supported_features bits
const (
	FeatureBrightness = 1
	FeatureColorTemp  = 2
	FeatureTransition = 32
)

// Tracker maintains a cache of entity states, seeded from a full state dump
// and kept fresh by per-entity subscriptions.
type Tracker struct {
	client ha.HAClient
	logger *zap.Logger

	mu     sync.RWMutex
	states map[string]*ha.State
	subs   []ha.Subscription
}

// NewTracker creates a tracker backed by the given client
func NewTracker(client ha.HAClient, logger *zap.Logger) *Tracker {
	return &Tracker{
		client: client,
		logger: logger,
		states: make(map[string]*ha.State),
	}
}

// Sync fetches all entity states and subscribes to changes for the domains
// the simulator works with.
func (t *Tracker) Sync(domains ...string) error {
	t.logger.Info("Syncing entity states...")

	all, err := t.client.GetAllStates()
	if err != nil {
		return fmt.Errorf("failed to get states: %w", err)
	}

	wanted := make(map[string]bool, len(domains))
	for _, d := range domains {
		wanted[d] = true
	}

	t.mu.Lock()
	count := 0
	for _, s := range all {
		if len(wanted) > 0 && !wanted[entityDomain(s.EntityID)] {
			continue
		}
		t.states[s.EntityID] = s
		count++
	}
	entityIDs := make([]string, 0, count)
	for id := range t.states {
		entityIDs = append(entityIDs, id)
	}
	t.mu.Unlock()

	for _, entityID := range entityIDs {
		sub, err := t.client.SubscribeStateChanges(entityID, t.onStateChange)
		if err != nil {
			t.logger.Warn("Failed to subscribe to entity",
				zap.String("entity_id", entityID),
				zap.Error(err))
			continue
		}
		t.mu.Lock()
		t.subs = append(t.subs, sub)
		t.mu.Unlock()
	}

	t.logger.Info("Entity state sync complete", zap.Int("entities", count))
	return nil
}

func (t *Tracker) onStateChange(entityID string, oldState, newState *ha.State) {
	if newState == nil {
		return
	}

	t.mu.Lock()
	t.states[entityID] = newState
	t.mu.Unlock()
}

// Stop unsubscribes all entity subscriptions
func (t *Tracker) Stop() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Get returns the cached state for an entity, or false when the entity is
// unknown.
func (t *Tracker) Get(entityID string) (*ha.State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[entityID]
	return s, ok
}

// EntityIDs returns the cached entity IDs in a given domain, sorted
func (t *Tracker) EntityIDs(domain string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []string
	for id := range t.states {
		if entityDomain(id) == domain {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SupportedFeatures returns the supported_features bitmask for an entity.
// Entities without the attribute report zero.
func (t *Tracker) SupportedFeatures(entityID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[entityID]
	if !ok || s.Attributes == nil {
		return 0
	}

	switch v := s.Attributes["supported_features"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func entityDomain(entityID string) string {
	if i := strings.Index(entityID, "."); i > 0 {
		return entityID[:i]
	}
	return ""
}
