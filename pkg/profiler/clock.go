package profiler

import "time"

// ClockFunc returns a monotonic timestamp, in nanoseconds since a fixed
// epoch. The epoch is not required to be the Unix epoch; only differences
// between successive calls are meaningful.
type ClockFunc func() int64

// clockEpoch is the fixed reference point NanosecondClock measures from.
var clockEpoch = time.Now()

// NanosecondClock is the default ClockFunc: nanoseconds elapsed since
// clockEpoch, measured with Go's monotonic clock reading, so it does not step
// backwards when the wall clock is adjusted.
func NanosecondClock() int64 {
	return int64(time.Since(clockEpoch))
}
