package eventtime

import (
	"sync"
	"time"
)

//Generator derives watermarks from event times with a bounded lateness
type Generator struct {
	mutex sync.Mutex
	lag   time.Duration
	max   time.Time
	last  time.Time
}

func NewGenerator(lag time.Duration) *Generator {
	return &Generator{lag: lag}
}

//Observe records the event time of a tuple
func (g *Generator) Observe(eventTime time.Time) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if eventTime.After(g.max) {
		g.max = eventTime
	}
}

//Next returns max observed event time minus lag when it is above the last returned watermark
func (g *Generator) Next() (time.Time, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.max.IsZero() {
		return time.Time{}, false
	}
	wm := g.max.Add(-g.lag)
	if !wm.After(g.last) {
		return g.last, false
	}
	g.last = wm
	return wm, true
}
