package service

import "time"

// SystemClock is the production port.Clock, backed by the wall clock
// in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
