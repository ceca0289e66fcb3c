package simulation

import (
	"fmt"
	"time"

	"github.com/coder/quartz"
)

// TimeDynamics is a monotonic simulation tick counter with a fixed step
// duration (spec.md §3, §4.2). It is clonable so each simulation/train owns
// a private, independently-advancing clock while sharing the same origin.
//
// The wall-clock side (quartz.Clock) is unrelated to simulated time: it only
// timestamps when a TimeDynamics was created/last stepped, so tests can
// inject a quartz.Mock and assert on real elapsed time without sleeping.
type TimeDynamics struct {
	StepDuration     float64 // seconds, simulated
	StartTimestamp   float64 // seconds, simulated
	CurrentStep      int
	CurrentTimestamp float64 // seconds, simulated

	clock       quartz.Clock
	realStartAt time.Time
}

// NewTimeDynamics builds a TimeDynamics with the given step duration (s)
// and simulated start timestamp, using clock for wall-time bookkeeping. A
// nil clock defaults to quartz.NewReal().
func NewTimeDynamics(stepDuration, startTimestamp float64, clock quartz.Clock) *TimeDynamics {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &TimeDynamics{
		StepDuration:     stepDuration,
		StartTimestamp:   startTimestamp,
		CurrentStep:      0,
		CurrentTimestamp: startTimestamp,
		clock:            clock,
		realStartAt:      clock.Now(),
	}
}

// Clone produces an independent TimeDynamics seeded from the same origin
// and step duration; stepping the clone never mutates the parent (spec.md
// §8 round-trip property).
func (t *TimeDynamics) Clone() *TimeDynamics {
	return &TimeDynamics{
		StepDuration:     t.StepDuration,
		StartTimestamp:   t.StartTimestamp,
		CurrentStep:      t.CurrentStep,
		CurrentTimestamp: t.CurrentTimestamp,
		clock:            t.clock,
		realStartAt:      t.realStartAt,
	}
}

// Step advances both the step counter and the simulated timestamp by
// StepDuration.
func (t *TimeDynamics) Step() {
	t.CurrentTimestamp += t.StepDuration
	t.CurrentStep++
}

// Reset rewinds the counters to the configured origin.
func (t *TimeDynamics) Reset() {
	t.CurrentStep = 0
	t.CurrentTimestamp = t.StartTimestamp
}

// ElapsedSimulated returns the simulated seconds elapsed since start.
func (t *TimeDynamics) ElapsedSimulated() float64 {
	return t.CurrentTimestamp - t.StartTimestamp
}

// ElapsedWallClock returns the real wall-clock duration since this
// TimeDynamics was constructed, per the injected quartz.Clock.
func (t *TimeDynamics) ElapsedWallClock() time.Duration {
	return t.clock.Since(t.realStartAt)
}

// FormatInterval renders seconds as HH:MM:SS, matching
// original_source/common/date.py's seconds_to_interval.
func FormatInterval(elapsedSeconds float64) string {
	hours := int(elapsedSeconds / 3600)
	minutes := int((elapsedSeconds - float64(hours)*3600) / 60)
	seconds := int(elapsedSeconds - float64(hours)*3600 - float64(minutes)*60)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
