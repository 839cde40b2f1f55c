package lifetimes

import (
	"github.com/google/btree"
)

// btreeDegree is the degree of the trees backing lifetimes and values
const btreeDegree = 16

// Lifetime is the set of moments an element exists during.
// For instance, an alter met in 2019, lost from sight in 2021, met again since 2023.
// Invariant: intervals are pairwise non overlapping and non contiguous (normal form).
// Mutations are Union and CutOut only.
type Lifetime struct {
	// intervals, sorted by their start
	intervals *btree.BTreeG[TimeInterval]
}

// NewLifetime returns the union of intervals, empty if no interval
func NewLifetime(intervals ...TimeInterval) *Lifetime {
	result := &Lifetime{intervals: btree.NewG(btreeDegree, lessIntervals)}
	for _, interval := range intervals {
		result.Union(interval)
	}

	return result
}

// lessIntervals is the order to store intervals
func lessIntervals(a, b TimeInterval) bool {
	return a.Compare(b) < 0
}

// IsEmpty returns true for an empty lifetime or nil
func (l *Lifetime) IsEmpty() bool {
	return l == nil || l.intervals == nil || l.intervals.Len() == 0
}

// Len returns the number of separated intervals
func (l *Lifetime) Len() int {
	if l.IsEmpty() {
		return 0
	}

	return l.intervals.Len()
}

// floor returns the interval with the greatest start lower or equal to m
func (l *Lifetime) floor(m Moment) (TimeInterval, bool) {
	var result TimeInterval
	var found bool
	l.intervals.DescendLessOrEqual(TimeInterval{start: m, end: MaxMoment}, func(item TimeInterval) bool {
		result, found = item, true
		return false
	})

	return result, found
}

// ceiling returns the interval with the lowest start greater or equal to m
func (l *Lifetime) ceiling(m Moment) (TimeInterval, bool) {
	var result TimeInterval
	var found bool
	l.intervals.AscendGreaterOrEqual(TimeInterval{start: m, end: MinMoment}, func(item TimeInterval) bool {
		result, found = item, true
		return false
	})

	return result, found
}

// before returns the last interval starting strictly before m
func (l *Lifetime) before(m Moment) (TimeInterval, bool) {
	var result TimeInterval
	var found bool
	l.intervals.DescendLessOrEqual(TimeInterval{start: m, end: MinMoment}, func(item TimeInterval) bool {
		if item.start < m {
			result, found = item, true
			return false
		}

		return true
	})

	return result, found
}

// candidates returns the intervals that may overlap or touch interval:
// the last one starting before it, and all intervals starting within interval bounds
func (l *Lifetime) candidates(interval TimeInterval) []TimedValue {
	var result []TimedValue
	if previous, found := l.before(interval.start); found {
		result = append(result, TimedValue{Interval: previous})
	}

	l.intervals.AscendGreaterOrEqual(TimeInterval{start: interval.start, end: MinMoment}, func(item TimeInterval) bool {
		if item.start > interval.end {
			return false
		}

		result = append(result, TimedValue{Interval: item})
		return true
	})

	return result
}

// apply deletes removed intervals and inserts new ones
func (l *Lifetime) apply(stored []TimedValue, change Change) {
	for _, index := range change.Removed {
		l.intervals.Delete(stored[index].Interval)
	}

	for _, fragment := range change.Inserted {
		l.intervals.ReplaceOrInsert(fragment.Interval)
	}
}

// Union adds interval to the lifetime, merging overlapping or contiguous intervals
func (l *Lifetime) Union(interval TimeInterval) {
	if l.intervals == nil {
		l.intervals = btree.NewG(btreeDegree, lessIntervals)
	}

	stored := l.candidates(interval)
	l.apply(stored, PlanUnion(stored, interval))
}

// CutOut removes interval from the lifetime.
// Removing a time point only removes an equal stored time point:
// it never splits an interval containing that point.
func (l *Lifetime) CutOut(interval TimeInterval) {
	if l.IsEmpty() {
		return
	}

	stored := l.candidates(interval)
	l.apply(stored, PlanCutOut(stored, interval))
}

// neighbours returns floor and ceiling of the start of interval.
// Because of the normal form, no other interval may contain or overlap its start
func (l *Lifetime) neighbours(interval TimeInterval) []TimeInterval {
	if l.IsEmpty() {
		return nil
	}

	var result []TimeInterval
	if previous, found := l.floor(interval.start); found {
		result = append(result, previous)
	}

	if next, found := l.ceiling(interval.start); found {
		result = append(result, next)
	}

	return result
}

// Overlaps returns true if at least one moment of interval is in the lifetime
func (l *Lifetime) Overlaps(interval TimeInterval) bool {
	for _, candidate := range l.neighbours(interval) {
		if candidate.Overlaps(interval) {
			return true
		}
	}

	return false
}

// Contains returns true if interval is fully included in an interval of the lifetime
func (l *Lifetime) Contains(interval TimeInterval) bool {
	for _, candidate := range l.neighbours(interval) {
		if candidate.Contains(interval) {
			return true
		}
	}

	return false
}

// ContainsMoment returns true if m is in the lifetime
func (l *Lifetime) ContainsMoment(m Moment) bool {
	return l.Contains(NewTimePoint(m))
}

// Intervals returns the intervals of the lifetime, ascending, as a snapshot
func (l *Lifetime) Intervals() []TimeInterval {
	if l.IsEmpty() {
		return nil
	}

	result := make([]TimeInterval, 0, l.intervals.Len())
	l.intervals.Ascend(func(item TimeInterval) bool {
		result = append(result, item)
		return true
	})

	return result
}

// Descending returns the intervals of the lifetime from the last to the first, as a snapshot
func (l *Lifetime) Descending() []TimeInterval {
	if l.IsEmpty() {
		return nil
	}

	result := make([]TimeInterval, 0, l.intervals.Len())
	l.intervals.Descend(func(item TimeInterval) bool {
		result = append(result, item)
		return true
	})

	return result
}

// First returns the first interval, false for an empty lifetime
func (l *Lifetime) First() (TimeInterval, bool) {
	if l.IsEmpty() {
		return TimeInterval{}, false
	}

	return l.intervals.Min()
}

// Last returns the last interval, false for an empty lifetime
func (l *Lifetime) Last() (TimeInterval, bool) {
	if l.IsEmpty() {
		return TimeInterval{}, false
	}

	return l.intervals.Max()
}

// Copy returns an independent copy of the lifetime
func (l *Lifetime) Copy() *Lifetime {
	if l.IsEmpty() {
		return NewLifetime()
	}

	return &Lifetime{intervals: l.intervals.Clone()}
}

// Equal returns true if lifetimes contain the same intervals
func (l *Lifetime) Equal(other *Lifetime) bool {
	mine, theirs := l.Intervals(), other.Intervals()
	if len(mine) != len(theirs) {
		return false
	}

	for index, interval := range mine {
		if interval != theirs[index] {
			return false
		}
	}

	return true
}

// String returns the intervals joined by U, or ]; [ for an empty lifetime
func (l *Lifetime) String() string {
	if l.IsEmpty() {
		return "];["
	}

	result := ""
	for index, interval := range l.Intervals() {
		if index >= 1 {
			result = result + "U"
		}

		result = result + interval.String()
	}

	return result
}
