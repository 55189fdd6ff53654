package testfixtures

import (
	"sync"
	"time"

	"github.com/example/liturgical-scheduler/internal/liturgical"
)

// Clock is a manually driven time source shared by dispatcher, reminder and
// service tests.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// NowFunc adapts the clock to the func() time.Time hooks taken by the
// services. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// EveOf moves the clock to 18:00 UTC on the day before date, the usual
// moment a reminder pass runs ahead of a Sunday service.
func (c *Clock) EveOf(date time.Time) time.Time {
	eve := liturgical.CivilDate(date).AddDate(0, 0, -1).Add(18 * time.Hour)
	c.Set(eve)
	return eve
}
