package lifetimes

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// TimeInterval is an immutable interval of moments.
// Start is included, end is excluded, except when start equals end:
// then, the interval is a single time point.
// Sentinels MinMoment and MaxMoment define left and right unbounded intervals.
type TimeInterval struct {
	// start of the interval, always included
	start Moment
	// end of the interval, excluded unless start equals end
	end Moment
}

// NewTimeInterval returns [start, end[, or an error if start is after end
func NewTimeInterval(start, end Moment) (TimeInterval, error) {
	var result TimeInterval
	if start > end {
		return result, errors.Newf("interval parameters would make empty interval: %d > %d", start, end)
	}

	result.start = start
	result.end = end
	return result, nil
}

// MustTimeInterval is NewTimeInterval for constant values, panics if start > end
func MustTimeInterval(start, end Moment) TimeInterval {
	result, err := NewTimeInterval(start, end)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "invalid interval"))
	}

	return result
}

// NewTimePoint returns the interval containing m only
func NewTimePoint(m Moment) TimeInterval {
	return TimeInterval{start: m, end: m}
}

// Always returns ]-oo, +oo[
func Always() TimeInterval {
	return TimeInterval{start: MinMoment, end: MaxMoment}
}

// Since returns [m, +oo[
func Since(m Moment) TimeInterval {
	return TimeInterval{start: m, end: MaxMoment}
}

// Until returns ]-oo, m[
func Until(m Moment) TimeInterval {
	return TimeInterval{start: MinMoment, end: m}
}

// Start returns the start of the interval
func (i TimeInterval) Start() Moment {
	return i.start
}

// End returns the end of the interval
func (i TimeInterval) End() Moment {
	return i.end
}

// IsPoint returns true for a degenerate interval (a time point)
func (i TimeInterval) IsPoint() bool {
	return i.start == i.end
}

// IsBoundedLeft is false for intervals starting at MinMoment
func (i TimeInterval) IsBoundedLeft() bool {
	return i.start != MinMoment
}

// IsBoundedRight is false for intervals ending at MaxMoment
func (i TimeInterval) IsBoundedRight() bool {
	return i.end != MaxMoment
}

// ContainsMoment returns true if m belongs to the interval
func (i TimeInterval) ContainsMoment(m Moment) bool {
	if i.IsPoint() {
		return m == i.start
	}

	return i.start <= m && m < i.end
}

// Overlaps returns true if intervals have at least one common moment
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	switch {
	case i.IsPoint() && other.IsPoint():
		return i.start == other.start
	case i.IsPoint():
		return other.ContainsMoment(i.start)
	case other.IsPoint():
		return i.ContainsMoment(other.start)
	default:
		return i.start < other.end && other.start < i.end
	}
}

// OverlapsOrIsContiguousWith returns true if the union of intervals is an interval.
// Intervals touch when the end of one is the start of the other.
// A time point at the excluded end of an interval does not touch it: their union is closed on the right.
func (i TimeInterval) OverlapsOrIsContiguousWith(other TimeInterval) bool {
	if i.IsPoint() || other.IsPoint() {
		return i.Overlaps(other)
	}

	return i.start <= other.end && other.start <= i.end
}

// Contains returns true if other is included in i.
// A time point contains only an equal time point
func (i TimeInterval) Contains(other TimeInterval) bool {
	switch {
	case i.IsPoint():
		return i == other
	case other.IsPoint():
		return i.ContainsMoment(other.start)
	default:
		return i.start <= other.start && other.end <= i.end
	}
}

// UnionWithContiguous returns the smallest interval containing both intervals.
// Caller must check OverlapsOrIsContiguousWith first, it panics otherwise.
func (i TimeInterval) UnionWithContiguous(other TimeInterval) TimeInterval {
	if !i.OverlapsOrIsContiguousWith(other) {
		panic(errors.AssertionFailedf("union of separated intervals %s and %s", i, other))
	}

	return TimeInterval{start: min(i.start, other.start), end: max(i.end, other.end)}
}

// Intersection returns the common part of intervals, and false if they do not overlap
func (i TimeInterval) Intersection(other TimeInterval) (TimeInterval, bool) {
	switch {
	case !i.Overlaps(other):
		return TimeInterval{}, false
	case i.IsPoint():
		return i, true
	case other.IsPoint():
		return other, true
	default:
		return TimeInterval{start: max(i.start, other.start), end: min(i.end, other.end)}, true
	}
}

// Minus returns the parts of i outside of cut, sorted.
// Cutting a time point out of a non degenerate interval keeps it unchanged:
// only an equal time point is removed by a time point.
func (i TimeInterval) Minus(cut TimeInterval) []TimeInterval {
	if !i.Overlaps(cut) {
		return []TimeInterval{i}
	} else if cut.IsPoint() {
		if i.IsPoint() {
			return nil
		}

		return []TimeInterval{i}
	}

	var result []TimeInterval
	if i.start < cut.start {
		result = append(result, TimeInterval{start: i.start, end: cut.start})
	}

	if i.end > cut.end {
		result = append(result, TimeInterval{start: cut.end, end: i.end})
	}

	return result
}

// Compare is the lexicographic order on (start, end)
func (i TimeInterval) Compare(other TimeInterval) int {
	if c := CompareMoments(i.start, other.start); c != 0 {
		return c
	}

	return CompareMoments(i.end, other.end)
}

// CompareIntervals is Compare as a function, to sort intervals
func CompareIntervals(a, b TimeInterval) int {
	return a.Compare(b)
}

// String serializes the interval as [start;end[ or [point]
func (i TimeInterval) String() string {
	if i.IsPoint() {
		return "[" + FormatMoment(i.start) + "]"
	}

	return "[" + FormatMoment(i.start) + ";" + FormatMoment(i.end) + "["
}

// ParseTimeInterval reads an interval serialized by String
func ParseTimeInterval(value string) (TimeInterval, error) {
	var result TimeInterval
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 3 || !strings.HasPrefix(trimmed, "[") {
		return result, errors.Newf("invalid interval %q", value)
	}

	if strings.HasSuffix(trimmed, "]") {
		point, err := ParseMoment(trimmed[1 : len(trimmed)-1])
		if err != nil {
			return result, err
		}

		return NewTimePoint(point), nil
	} else if !strings.HasSuffix(trimmed, "[") {
		return result, errors.Newf("invalid interval %q", value)
	}

	parts := strings.Split(trimmed[1:len(trimmed)-1], ";")
	if len(parts) != 2 {
		return result, errors.Newf("invalid interval %q: expecting two bounds", value)
	}

	start, errStart := ParseMoment(parts[0])
	if errStart != nil {
		return result, errStart
	}

	end, errEnd := ParseMoment(parts[1])
	if errEnd != nil {
		return result, errEnd
	}

	return NewTimeInterval(start, end)
}
