// Package clock pins every wall-clock decision of the station to one fixed
// UTC offset, so flush timestamps, report dates and schedules agree.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the calendar-date key used for reports.
const DateLayout = "2006-01-02"

// Clock returns the current instant in the station's zone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Fixed is a Clock bound to a fixed UTC offset.
type Fixed struct {
	loc *time.Location
}

// NewFixed creates a Clock for the given offset in whole hours (e.g. -5).
func NewFixed(offsetHours int) *Fixed {
	return &Fixed{loc: Zone(offsetHours)}
}

// Zone builds a fixed *time.Location named like "UTC-5".
func Zone(offsetHours int) *time.Location {
	name := "UTC"
	if offsetHours != 0 {
		name = fmt.Sprintf("UTC%+d", offsetHours)
	}
	return time.FixedZone(name, offsetHours*60*60)
}

func (f *Fixed) Now() time.Time {
	return time.Now().In(f.loc)
}

func (f *Fixed) Location() *time.Location {
	return f.loc
}

// Date formats the calendar date of t in the clock's zone.
func Date(c Clock, t time.Time) string {
	return t.In(c.Location()).Format(DateLayout)
}

// Today is the current calendar date in the clock's zone.
func Today(c Clock) string {
	return Date(c, c.Now())
}

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual starts a manual clock at now, keeping now's location.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Location() *time.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.Location()
}

// Set jumps to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
