package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeSource supplies the current time to the timer service. The engine uses
// the wall clock; tests drive a ManualClock.
type TimeSource interface {
	Now() time.Time
}

// Sleeper is implemented by time sources that can block (or pretend to).
type Sleeper interface {
	Sleep(d time.Duration)
}

type systemTime struct{}

func (systemTime) Now() time.Time        { return time.Now() }
func (systemTime) Sleep(d time.Duration) { time.Sleep(d) }

// SystemTime is the wall-clock TimeSource.
var SystemTime TimeSource = systemTime{}

// ManualClock is a TimeSource that only moves when told to.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (mc *ManualClock) Now() time.Time {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return mc.now
}

func (mc *ManualClock) Advance(d time.Duration) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.now = mc.now.Add(d)
}

// AdvanceMs moves the clock forward by ms milliseconds.
func (mc *ManualClock) AdvanceMs(ms float64) {
	mc.Advance(MillisecondsToDuration(ms))
}

// Sleep advances the clock instead of blocking.
func (mc *ManualClock) Sleep(d time.Duration) {
	if d > 0 {
		mc.Advance(d)
	}
}

// TimerHandle identifies a stopwatch owned by the TimerService.
type TimerHandle uuid.UUID

// InvalidTimerHandle is never returned by Create.
var InvalidTimerHandle = TimerHandle(uuid.Nil)

func (h TimerHandle) String() string {
	return uuid.UUID(h).String()
}

func (h TimerHandle) IsValid() bool {
	return h != InvalidTimerHandle
}

// TimerService keeps a set of monotonic stopwatches keyed by handle.
type TimerService struct {
	mutex  sync.Mutex
	source TimeSource
	timers map[TimerHandle]time.Time
}

func NewTimerService(source TimeSource) *TimerService {
	if source == nil {
		source = SystemTime
	}
	return &TimerService{
		source: source,
		timers: make(map[TimerHandle]time.Time),
	}
}

// Source returns the time source backing the service.
func (ts *TimerService) Source() TimeSource {
	return ts.source
}

// Create starts a new stopwatch at the current time.
func (ts *TimerService) Create() TimerHandle {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	h := TimerHandle(uuid.New())
	ts.timers[h] = ts.source.Now()
	return h
}

// Reset restarts the stopwatch. Unknown handles are ignored.
func (ts *TimerService) Reset(h TimerHandle) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if _, ok := ts.timers[h]; !ok {
		LogWarn("timer `%s` does not exist. Nothing was reset", h)
		return
	}
	ts.timers[h] = ts.source.Now()
}

// ElapsedMs returns the milliseconds since the stopwatch was created or last
// reset. Unknown handles report 0.
func (ts *TimerService) ElapsedMs(h TimerHandle) float64 {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	start, ok := ts.timers[h]
	if !ok {
		LogWarn("timer `%s` does not exist", h)
		return 0
	}
	return DurationToMilliseconds(ts.source.Now().Sub(start))
}

// Kill forgets the stopwatch.
func (ts *TimerService) Kill(h TimerHandle) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	delete(ts.timers, h)
}

func (ts *TimerService) Count() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.timers)
}

// Delay blocks for ms milliseconds. Non-positive values return immediately.
func (ts *TimerService) Delay(ms float64) {
	if ms <= 0 {
		return
	}
	if s, ok := ts.source.(Sleeper); ok {
		s.Sleep(MillisecondsToDuration(ms))
		return
	}
	time.Sleep(MillisecondsToDuration(ms))
}

func DurationToMilliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func MillisecondsToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
