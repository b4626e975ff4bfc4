// Package filetime converts NTFS FILETIME values (100ns ticks since
// 1601-01-01 UTC) to and from time.Time, and judges whether a value looks
// like a real timestamp rather than slack-space noise.
package filetime

import "time"

// ticksPerSecond is the number of 100ns FILETIME ticks in one second.
const ticksPerSecond = 10_000_000

// epochDelta is the number of seconds between the FILETIME epoch
// (1601-01-01) and the Unix epoch (1970-01-01).
const epochDelta = 11644473600

// MinPlausibleYear and MaxPlausibleYear bound what the slack scanner will
// accept as a real timestamp (spec.md §9 open question: no image is going
// to carry a genuine NTFS timestamp outside this range).
var (
	MinPlausibleYear = 1980
	MaxPlausibleYear = 2200
)

// ToTime converts raw FILETIME ticks to a UTC time.Time.
func ToTime(ticks uint64) time.Time {
	seconds := int64(ticks/ticksPerSecond) - epochDelta
	nanos := int64(ticks%ticksPerSecond) * 100
	return time.Unix(seconds, nanos).UTC()
}

// Plausible reports whether ticks decodes to a year within
// [MinPlausibleYear, MaxPlausibleYear]. Used by the slack scanner to reject
// noise that happens to parse as a well-formed $FILE_NAME (spec.md §4.6).
func Plausible(ticks uint64) bool {
	y := ToTime(ticks).Year()
	return y >= MinPlausibleYear && y <= MaxPlausibleYear
}
