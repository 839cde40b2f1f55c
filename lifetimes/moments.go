package lifetimes

import (
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DATE_SERDE_FORMAT is the format for moments to use in json and urls
	DATE_SERDE_FORMAT = "2006-01-02T15:04:05.000"
	// DATE_SECONDS_FORMAT is the former serde format, still accepted when parsing
	DATE_SECONDS_FORMAT = "2006-01-02T15:04:05"
	// LEFT_INFINITE is the serialized value of MinMoment
	LEFT_INFINITE = "-oo"
	// RIGHT_INFINITE is the serialized value of MaxMoment
	RIGHT_INFINITE = "+oo"
)

// Moment is a point on the clock, as milliseconds since epoch
type Moment int64

const (
	// MinMoment is the sentinel for a left unbounded interval
	MinMoment Moment = math.MinInt64
	// MaxMoment is the sentinel for a right unbounded interval
	MaxMoment Moment = math.MaxInt64
)

// FromTime returns the moment of t, truncated to the millisecond
func FromTime(t time.Time) Moment {
	return Moment(t.UTC().UnixMilli())
}

// Now returns the current moment
func Now() Moment {
	return FromTime(time.Now())
}

// ToTime returns moment as an UTC time.
// Sentinels are mapped to the matching extreme times the time package accepts
func (m Moment) ToTime() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// IsInfinite returns true for sentinels
func (m Moment) IsInfinite() bool {
	return m == MinMoment || m == MaxMoment
}

// CompareMoments compares moments.
// Use this function to sort moments
func CompareMoments(a, b Moment) int {
	return cmp.Compare(a, b)
}

// FormatMoment returns the moment with the serde format, or infinite tokens for sentinels
func FormatMoment(m Moment) string {
	switch m {
	case MinMoment:
		return LEFT_INFINITE
	case MaxMoment:
		return RIGHT_INFINITE
	default:
		return m.ToTime().Format(DATE_SERDE_FORMAT)
	}
}

// ParseMoment reads a moment.
// Accepted values are infinite tokens, dates at the serde format (milliseconds optional), or raw milliseconds
func ParseMoment(value string) (Moment, error) {
	trimmed := strings.TrimSpace(value)
	switch trimmed {
	case LEFT_INFINITE:
		return MinMoment, nil
	case RIGHT_INFINITE:
		return MaxMoment, nil
	case "":
		return 0, errors.New("empty moment")
	}

	if t, err := time.Parse(DATE_SERDE_FORMAT, trimmed); err == nil {
		return FromTime(t), nil
	} else if t, errSeconds := time.Parse(DATE_SECONDS_FORMAT, trimmed); errSeconds == nil {
		return FromTime(t), nil
	} else if millis, errInt := strconv.ParseInt(trimmed, 10, 64); errInt == nil {
		return Moment(millis), nil
	} else {
		return 0, errors.Wrapf(err, "invalid moment %q, expecting %s", value, DATE_SERDE_FORMAT)
	}
}
