package presence

import (
	"fmt"
	"sync"

	"presencesim/internal/ha"

	"go.uber.org/zap"
)

// SwitchListener multiplexes toggle-switch state changes to the simulators
// watching them. One Home Assistant subscription is held per entity and
// shared by reference counting; the last released watch tears it down.
type SwitchListener struct {
	client ha.HAClient
	logger *zap.Logger

	mu      sync.Mutex
	watches map[string]*entityWatch
}

type entityWatch struct {
	sub      ha.Subscription
	handlers map[int]func(on bool)
	nextID   int
}

// WatchHandle releases one watcher's interest in an entity
type WatchHandle struct {
	release func()
	once    sync.Once
}

// Release detaches the handler. Safe to call more than once.
func (h *WatchHandle) Release() {
	h.once.Do(h.release)
}

// NewSwitchListener creates a listener on the given client
func NewSwitchListener(client ha.HAClient, logger *zap.Logger) *SwitchListener {
	return &SwitchListener{
		client:  client,
		logger:  logger.Named("switchlistener"),
		watches: make(map[string]*entityWatch),
	}
}

// Watch registers handler for on/off changes of entityID. The first watcher
// of an entity opens the underlying subscription; later watchers share it.
func (l *SwitchListener) Watch(entityID string, handler func(on bool)) (*WatchHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.watches[entityID]
	if !ok {
		w = &entityWatch{handlers: make(map[int]func(on bool))}

		sub, err := l.client.SubscribeStateChanges(entityID, func(entity string, oldState, newState *ha.State) {
			l.dispatch(entity, newState)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to watch %s: %w", entityID, err)
		}

		w.sub = sub
		l.watches[entityID] = w
		l.logger.Debug("Watching switch", zap.String("entity_id", entityID))
	}

	id := w.nextID
	w.nextID++
	w.handlers[id] = handler

	return &WatchHandle{release: func() { l.release(entityID, id) }}, nil
}

func (l *SwitchListener) dispatch(entityID string, newState *ha.State) {
	if newState == nil {
		return
	}

	l.mu.Lock()
	w, ok := l.watches[entityID]
	if !ok {
		l.mu.Unlock()
		return
	}
	handlers := make([]func(on bool), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	l.mu.Unlock()

	on := newState.State == "on"
	for _, h := range handlers {
		h(on)
	}
}

func (l *SwitchListener) release(entityID string, id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.watches[entityID]
	if !ok {
		return
	}

	delete(w.handlers, id)
	if len(w.handlers) > 0 {
		return
	}

	delete(l.watches, entityID)
	if err := w.sub.Unsubscribe(); err != nil {
		l.logger.Warn("Failed to unsubscribe switch watch",
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
	l.logger.Debug("Stopped watching switch", zap.String("entity_id", entityID))
}
