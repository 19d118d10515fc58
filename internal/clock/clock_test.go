package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZoneOffset(t *testing.T) {
	loc := Zone(-5)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, "UTC-5", loc.String())
	assert.Equal(t, "UTC", Zone(0).String())
}

func TestFixedNowUsesZone(t *testing.T) {
	c := NewFixed(-5)
	_, offset := c.Now().Zone()
	assert.Equal(t, -5*3600, offset)
}

func TestTodayCrossesMidnightInZone(t *testing.T) {
	// 03:00 UTC on the 20th is still the 19th at UTC-5.
	utc := time.Date(2026, 10, 20, 3, 0, 0, 0, time.UTC)
	c := NewManual(utc.In(Zone(-5)))
	assert.Equal(t, "2026-10-19", Today(c))
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 10, 19, 23, 59, 0, 0, Zone(-5))
	c := NewManual(start)
	assert.Equal(t, "2026-10-19", Today(c))

	c.Advance(2 * time.Minute)
	assert.Equal(t, "2026-10-20", Today(c))
	assert.Equal(t, "UTC-5", c.Location().String())
}
