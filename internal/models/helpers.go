package models

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new unique ID with the given prefix
func GenerateID(prefix string) string {
	id := uuid.New().String()

	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// UnixTime is a point in time that serializes as epoch seconds (a JSON float),
// matching the on-disk order layout. Values are truncated to millisecond
// precision so the float representation round-trips exactly.
type UnixTime time.Time

// NewUnixTime converts a time.Time into a UnixTime
func NewUnixTime(t time.Time) UnixTime {
	return UnixTime(time.UnixMilli(t.UnixMilli()).UTC())
}

// Time returns the underlying time.Time
func (t UnixTime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON writes the time as epoch seconds
func (t UnixTime) MarshalJSON() ([]byte, error) {
	sec := float64(time.Time(t).UnixMilli()) / 1e3
	return []byte(strconv.FormatFloat(sec, 'f', -1, 64)), nil
}

// UnmarshalJSON reads epoch seconds back into a UnixTime
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	sec, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	*t = UnixTime(time.UnixMilli(int64(math.Round(sec * 1e3))).UTC())
	return nil
}
