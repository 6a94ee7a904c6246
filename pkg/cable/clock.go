package cable

import "time"

// Timer is the handle returned by Clock.AfterFunc; Stop cancels a pending
// fire the way *time.Timer.Stop does.
type Timer interface {
	Stop() bool
}

// Clock is the time seam the debounce timer runs on, so tests can
// fast-forward past the 1500ms window deterministically instead of
// sleeping for real.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock is the production Clock, backed by time.AfterFunc.
var RealClock Clock = realClock{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
