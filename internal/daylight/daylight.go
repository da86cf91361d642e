// Package daylight answers whether it is dark outside at a given location,
// used to gate simulated light playback to the hours where it is plausible.
package daylight

import (
	"sync"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"go.uber.org/zap"
)

// Calculator caches per-day sun times for a fixed location
type Calculator struct {
	latitude  float64
	longitude float64
	logger    *zap.Logger

	mu         sync.Mutex
	sunrise    time.Time
	sunset     time.Time
	cachedDate time.Time
}

// NewCalculator creates a calculator for the given coordinates
func NewCalculator(latitude, longitude float64, logger *zap.Logger) *Calculator {
	return &Calculator{
		latitude:  latitude,
		longitude: longitude,
		logger:    logger,
	}
}

// IsDark reports whether t falls outside the local daylight window. Civil
// twilight keeps it "light" for roughly half an hour past sunset and before
// sunrise, matching when people actually switch lights on.
func (c *Calculator) IsDark(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updateSunTimes(t)

	dawn := c.sunrise.Add(-30 * time.Minute)
	dusk := c.sunset.Add(30 * time.Minute)
	return t.Before(dawn) || t.After(dusk)
}

// updateSunTimes recalculates sunrise and sunset when t crosses into a new
// day. Caller holds c.mu.
func (c *Calculator) updateSunTimes(t time.Time) {
	day := t.UTC().Truncate(24 * time.Hour)
	if day.Equal(c.cachedDate) {
		return
	}

	c.sunrise, c.sunset = sunrise.SunriseSunset(
		c.latitude, c.longitude,
		t.Year(), t.Month(), t.Day(),
	)
	c.cachedDate = day

	c.logger.Debug("Sun times updated",
		zap.Time("sunrise", c.sunrise),
		zap.Time("sunset", c.sunset))
}
