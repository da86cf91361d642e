package presence

import (
	"strings"
	"time"

	"presencesim/internal/ha"
	"presencesim/internal/states"

	"go.uber.org/zap"
)

// replayTick fetches the history slice that mirrors [now-interval, now] from
// playback_days ago and replays it: light turn_on/turn_off and automation
// triggers, skipping anything the simulator itself caused on a previous run.
func (s *Simulator) replayTick(now time.Time) {
	s.mu.Lock()
	set := s.settings
	s.mu.Unlock()

	if set.OnlyWhenDark && !s.daylight.IsDark(now) {
		s.logger.Debug("Daylight outside, skipping playback tick")
		return
	}

	offset := time.Duration(set.PlaybackDays) * 24 * time.Hour
	windowEnd := now.Add(-offset)
	windowStart := windowEnd.Add(-set.Interval)

	entities := s.playbackEntities(set)
	if len(entities) == 0 {
		s.logger.Debug("No entities match the playback filters")
		return
	}

	history, err := s.client.GetHistory(entities, windowStart, windowEnd)
	if err != nil {
		s.logger.Error("Failed to fetch history for playback",
			zap.Time("window_start", windowStart),
			zap.Time("window_end", windowEnd),
			zap.Error(err))
		return
	}

	replayed, skipped := 0, 0
	for _, entityID := range entities {
		for _, point := range history[entityID] {
			if ha.IsOwnContext(point.Context) {
				skipped++
				continue
			}
			if s.replayPoint(now, entityID, point) {
				replayed++
			}
		}
	}

	if replayed > 0 || skipped > 0 {
		s.logger.Info("Playback tick complete",
			zap.Time("window_start", windowStart),
			zap.Int("replayed", replayed),
			zap.Int("skipped_own", skipped))
	}
}

// playbackEntities returns the lights and automations taking part, per the
// entry's filters. Patterns match against the entity ID or its friendly name.
func (s *Simulator) playbackEntities(set Settings) []string {
	var out []string

	for _, id := range s.states.EntityIDs("light") {
		if set.LightsFilter != nil && !s.matchesFilter(*set.LightsFilter, id) {
			continue
		}
		out = append(out, id)
	}

	if set.PlaybackAutomation {
		for _, id := range s.states.EntityIDs("automation") {
			if set.AutomationFilter != nil && !s.matchesFilter(*set.AutomationFilter, id) {
				continue
			}
			out = append(out, id)
		}
	}

	return out
}

func (s *Simulator) matchesFilter(pattern, entityID string) bool {
	if likeMatch(pattern, entityID) {
		return true
	}

	state, ok := s.states.Get(entityID)
	if !ok || state.Attributes == nil {
		return false
	}
	if name, ok := state.Attributes["friendly_name"].(string); ok {
		return likeMatch(pattern, name)
	}
	return false
}

// replayPoint turns one historical state change into a service call. Returns
// false when the point produced no action.
func (s *Simulator) replayPoint(now time.Time, entityID string, point ha.HistoryState) bool {
	if _, ok := s.states.Get(entityID); !ok {
		s.logger.Warn("History references an entity that no longer exists",
			zap.String("entity_id", entityID))
		return false
	}

	dot := strings.Index(entityID, ".")
	if dot <= 0 {
		return false
	}
	domain := entityID[:dot]

	var service string
	data := map[string]interface{}{"entity_id": entityID}

	switch domain {
	case "light":
		switch point.State {
		case "on":
			service = "turn_on"
		case "off":
			service = "turn_off"
		default:
			// unavailable/unknown points carry no action
			return false
		}
		if s.states.SupportedFeatures(entityID)&states.FeatureTransition != 0 {
			data["transition"] = 1
		}
	case "automation":
		if point.State != "on" && point.State != "off" {
			return false
		}
		service = "trigger"
	default:
		return false
	}

	ctx := s.nextContext("playback")

	s.replayLog.Add(ReplayedAction{
		Time:           now,
		HistoricalTime: point.LastChanged,
		EntityID:       entityID,
		Domain:         domain,
		Service:        service,
		ContextID:      ctx.ID,
		ReadOnly:       s.readOnly,
	})

	if s.readOnly {
		s.logger.Info("READ-ONLY: Would replay",
			zap.String("entity_id", entityID),
			zap.String("service", service),
			zap.Time("historical_time", point.LastChanged))
		return true
	}

	if err := s.client.CallService(domain, service, data, &ctx); err != nil {
		s.logger.Error("Failed to replay action",
			zap.String("entity_id", entityID),
			zap.String("service", service),
			zap.Error(err))
		return false
	}

	s.logger.Debug("Replayed action",
		zap.String("entity_id", entityID),
		zap.String("service", service),
		zap.String("context_id", ctx.ID),
		zap.Time("historical_time", point.LastChanged))
	return true
}
