// Package clock provides an injectable time source.
//
// Components that schedule work (the search debouncer, the list controller,
// the session sweeper) take a Clock instead of calling the time package
// directly. Production code passes Real(); tests pass Fake() and move time
// forward explicitly with Advance.
package clock

import "time"

// Clock is the subset of the time package used by treadline.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer cancels the
	// call if stopped first.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable handle for a delayed task.
type Timer struct {
	stop func() bool
}

// Stop prevents the task from running. It reports whether the call stopped
// the task; false means it already ran or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stop == nil {
		return false
	}
	return t.stop()
}

// =============================================================================
// Real Clock
// =============================================================================

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stop: t.Stop}
}
