package m2c2

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock supplies the frame timestamp in milliseconds. Event timestamps,
// action timing and replay scheduling all read the same clock.
type Clock interface {
	Now() float64
}

// RealClock reports monotonic milliseconds since it was created.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a clock starting at zero now.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// Now returns the milliseconds elapsed since the clock was created.
func (c *RealClock) Now() float64 {
	return float64(time.Since(c.start).Nanoseconds()) / 1e6
}

// SteppingClock only moves when Advance is called. It makes frame timing
// deterministic for tests, headless replay and frame-by-frame debugging.
type SteppingClock struct {
	mu  sync.Mutex
	now float64
}

// NewSteppingClock returns a clock at time zero.
func NewSteppingClock() *SteppingClock {
	return &SteppingClock{}
}

// Now returns the current time in milliseconds.
func (c *SteppingClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms milliseconds.
func (c *SteppingClock) Advance(ms float64) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// Set moves the clock to ms.
func (c *SteppingClock) Set(ms float64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// The process-wide clock stamps events emitted by nodes that are not yet
// attached to a game. A Game installs its own clock here when created, so
// only one Game should be live at a time.
var (
	clockMu     sync.RWMutex
	globalClock Clock = NewRealClock()
)

func setGlobalClock(c Clock) {
	clockMu.Lock()
	globalClock = c
	clockMu.Unlock()
}

func now() float64 {
	clockMu.RLock()
	c := globalClock
	clockMu.RUnlock()
	return c.Now()
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

var sequenceCounter atomic.Int64

// nextSequence returns the next process-wide event sequence number. The
// first value is 1; zero means "not yet assigned".
func nextSequence() int64 {
	return sequenceCounter.Add(1)
}
