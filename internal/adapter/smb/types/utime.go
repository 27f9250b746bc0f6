package types

import (
	"math"
	"time"
)

// UTIME values that mean "do not change this timestamp".
const (
	UTimeUnset    uint32 = 0x00000000
	UTimeNoChange uint32 = 0xFFFFFFFF
)

// IsUTimeSentinel reports whether v asks the server to leave the time alone.
func IsUTimeSentinel(v uint32) bool {
	return v == UTimeUnset || v == UTimeNoChange
}

// LocalToAbsolute converts an SMB1 UTIME, a count of seconds since
// 1970-01-01 00:00:00 in the server's local time, into an absolute time.
// The wall-clock reading is interpreted in loc, so the applicable UTC
// offset (including daylight saving) is the one in force at that moment.
// A nil loc is treated as UTC.
func LocalToAbsolute(loc *time.Location, v uint32) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	wall := time.Unix(int64(v), 0).UTC()
	return time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
}

// localSeconds returns t as a wall-clock second count in loc.
func localSeconds(loc *time.Location, t time.Time) int64 {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(),
		lt.Hour(), lt.Minute(), lt.Second(), 0, time.UTC).Unix()
}

// UTimeInRange reports whether t has a UTIME in loc that is not one of
// the sentinels, so AbsoluteToLocal returns it without clamping.
func UTimeInRange(loc *time.Location, t time.Time) bool {
	secs := localSeconds(loc, t)
	return secs > 0 && secs < int64(UTimeNoChange)
}

// AbsoluteToLocal is the inverse of LocalToAbsolute. Times that do not fit
// in 32 bits are clamped; the result never collides with UTimeNoChange.
func AbsoluteToLocal(loc *time.Location, t time.Time) uint32 {
	secs := localSeconds(loc, t)
	switch {
	case secs <= 0:
		return UTimeUnset
	case secs >= math.MaxUint32:
		return UTimeNoChange - 1
	default:
		return uint32(secs)
	}
}
