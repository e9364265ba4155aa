// Package point defines the scalar measurement type shared by every layer
// of the ingestion-and-query engine.
package point

import (
	"fmt"
	"time"
)

// ScalarPoint is a single measurement in a time series, keyed by step.
// WallTime and LocalTime are kept in sync: either can be derived from the
// other, but both are retained so responses never need to reformat on
// every request.
type ScalarPoint struct {
	Step     int64
	Value    float32
	WallTime float64 // unix seconds, fractional milliseconds
	LocalTime string // "YYYY-MM-DD HH:MM:SS,mmm", UTC rendering
}

// localTimeLayout matches the original system's gmtime rendering.
const localTimeLayout = "2006-01-02 15:04:05"

// New builds a point from a step/value/wall-time triple, deriving LocalTime.
func New(step int64, value float32, wallTime float64) ScalarPoint {
	return ScalarPoint{
		Step:      step,
		Value:     value,
		WallTime:  wallTime,
		LocalTime: WallTimeToLocal(wallTime),
	}
}

// NewFromLocal builds a point from a step/value/local-time triple, deriving
// WallTime from the local-time string.
func NewFromLocal(step int64, value float32, localTime string) ScalarPoint {
	return ScalarPoint{
		Step:      step,
		Value:     value,
		WallTime:  LocalToWallTime(localTime),
		LocalTime: localTime,
	}
}

// WallTimeToLocal renders a unix-seconds-with-fraction timestamp as
// "YYYY-MM-DD HH:MM:SS,mmm" in UTC. wallTime == -1 is the "unset" sentinel
// and renders as the empty string.
func WallTimeToLocal(wallTime float64) string {
	if wallTime == -1 {
		return ""
	}
	seconds := int64(wallTime)
	millis := int((wallTime - float64(seconds)) * 1000)
	t := time.Unix(seconds, 0).UTC()
	return fmt.Sprintf("%s,%03d", t.Format(localTimeLayout), millis)
}

// LocalToWallTime parses a "YYYY-MM-DD HH:MM:SS,mmm" string (UTC, per
// DESIGN.md's Open Question #2 resolution) back to unix-seconds-with-fraction.
// Returns 0 on a malformed string rather than erroring, matching the
// best-effort formatting contract of §1 (no authoritative timezone handling).
func LocalToWallTime(localTime string) float64 {
	if localTime == "" {
		return -1
	}
	datePart := localTime
	millis := 0
	if idx := indexByte(localTime, ','); idx >= 0 {
		datePart = localTime[:idx]
		fmt.Sscanf(localTime[idx+1:], "%d", &millis)
	}
	t, err := time.Parse(localTimeLayout, datePart)
	if err != nil {
		return 0
	}
	return float64(t.Unix()) + float64(millis)/1000.0
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
