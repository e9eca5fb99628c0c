// Package chromium holds conversions for Chrome's on-disk data formats.
package chromium

import "time"

// Chrome stores timestamps as microseconds since 1601-01-01 (the WebKit
// epoch), both in the Bookmarks file and in the History database.
const epochOffsetMicros = 11644473600000000

// TimeFromWebkit converts a WebKit timestamp to a UTC time.Time.
// Zero, negative and pre-1970 values come back as the zero time,
// which the rest of the pipeline treats as "never visited".
func TimeFromWebkit(micros int64) time.Time {
	if micros <= 0 {
		return time.Time{}
	}
	unix := micros - epochOffsetMicros
	if unix <= 0 {
		return time.Time{}
	}
	return time.UnixMicro(unix).UTC()
}

// WebkitFromTime is the inverse conversion, used when writing merged
// records back into a History database. The zero time maps to 0.
func WebkitFromTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro() + epochOffsetMicros
}
