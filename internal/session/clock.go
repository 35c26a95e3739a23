package session

import "time"

// Clock is the time source the manager schedules auto-logout against.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d unless the returned Timer is stopped first.
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
