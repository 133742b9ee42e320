package archive

import "time"

// The Messages database stores timestamps relative to 2001-01-01 00:00:00 UTC
// rather than the Unix epoch. Modern databases use nanoseconds; rows written
// before the High Sierra migration hold whole seconds.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Any nanosecond-precision value is far above this; any seconds value written
// this century is far below it.
const nanosecondThreshold = int64(1) << 40

// timeFromApple converts a store-native timestamp to a time.Time.
// Zero stays the zero time so malformed rows are detectable downstream.
func timeFromApple(raw int64) time.Time {
	if raw == 0 {
		return time.Time{}
	}
	if raw > nanosecondThreshold {
		return appleEpoch.Add(time.Duration(raw))
	}
	return appleEpoch.Add(time.Duration(raw) * time.Second)
}

// appleNanos converts a time.Time to store-native nanoseconds.
func appleNanos(t time.Time) int64 {
	return t.Sub(appleEpoch).Nanoseconds()
}
