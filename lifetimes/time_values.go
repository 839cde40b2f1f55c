package lifetimes

import (
	"slices"

	"github.com/google/btree"
)

// TimeVaryingValue is the history of the values of an attribute for one element.
// For instance, the city of an alter: "Paris" from 2015 to 2019, "Lyon" since 2019.
// Invariants: intervals never overlap, and intervals with the same value never touch.
type TimeVaryingValue struct {
	// entries sorted by interval
	entries *btree.BTreeG[TimedValue]
}

// lessTimedValues orders entries by interval
func lessTimedValues(a, b TimedValue) bool {
	return a.Interval.Compare(b.Interval) < 0
}

// NewTimeVaryingValue returns an empty history
func NewTimeVaryingValue() *TimeVaryingValue {
	return &TimeVaryingValue{entries: btree.NewG(btreeDegree, lessTimedValues)}
}

// IsEmpty returns true for nil or no value
func (t *TimeVaryingValue) IsEmpty() bool {
	return t == nil || t.entries == nil || t.entries.Len() == 0
}

// Len returns the number of entries
func (t *TimeVaryingValue) Len() int {
	if t.IsEmpty() {
		return 0
	}

	return t.entries.Len()
}

// floor returns the entry with the greatest start lower or equal to m
func (t *TimeVaryingValue) floor(m Moment) (TimedValue, bool) {
	var result TimedValue
	var found bool
	t.entries.DescendLessOrEqual(TimedValue{Interval: TimeInterval{start: m, end: MaxMoment}}, func(item TimedValue) bool {
		result, found = item, true
		return false
	})

	return result, found
}

// candidates returns the entries that may overlap or touch interval:
// the last one starting before it, and all entries starting within interval bounds
func (t *TimeVaryingValue) candidates(interval TimeInterval) []TimedValue {
	var result []TimedValue
	pivot := TimedValue{Interval: TimeInterval{start: interval.start, end: MinMoment}}
	t.entries.DescendLessOrEqual(pivot, func(item TimedValue) bool {
		if item.Interval.start < interval.start {
			result = append(result, item)
			return false
		}

		return true
	})

	t.entries.AscendGreaterOrEqual(pivot, func(item TimedValue) bool {
		if item.Interval.start > interval.end {
			return false
		}

		result = append(result, item)
		return true
	})

	return result
}

// SetValueAt replaces values during interval with value, keeping values outside.
// Neighbours with the same value are merged with the new entry.
// An unassigned value removes values during interval.
// It returns false, with no change, when interval is a time point within a stored interval (start included) with another value.
func (t *TimeVaryingValue) SetValueAt(interval TimeInterval, value string) bool {
	if t.entries == nil {
		t.entries = btree.NewG(btreeDegree, lessTimedValues)
	}

	stored := t.candidates(interval)
	change, accepted := PlanSetValue(stored, interval, value)
	if !accepted {
		return false
	}

	for _, index := range change.Removed {
		t.entries.Delete(stored[index])
	}

	for _, fragment := range change.Inserted {
		t.entries.ReplaceOrInsert(fragment.TimedValue)
	}

	return true
}

// Lookup returns the entry containing m, if any
func (t *TimeVaryingValue) Lookup(m Moment) (TimedValue, bool) {
	if t.IsEmpty() {
		return TimedValue{}, false
	}

	// under the invariant, only floor and ceiling of [m] may contain m
	if previous, found := t.floor(m); found && previous.Interval.ContainsMoment(m) {
		return previous, true
	}

	var result TimedValue
	var found bool
	t.entries.AscendGreaterOrEqual(TimedValue{Interval: NewTimePoint(m)}, func(item TimedValue) bool {
		if item.Interval.ContainsMoment(m) {
			result, found = item, true
		}

		return false
	})

	return result, found
}

// GetValueAt returns the value at m, or UNASSIGNED_VALUE
func (t *TimeVaryingValue) GetValueAt(m Moment) string {
	if entry, found := t.Lookup(m); found {
		return entry.Value
	}

	return UNASSIGNED_VALUE
}

// Support returns the lifetime during which a value is defined
func (t *TimeVaryingValue) Support() *Lifetime {
	result := NewLifetime()
	for _, entry := range t.Entries() {
		result.Union(entry.Interval)
	}

	return result
}

// NewestValue returns the value of the last entry, or UNASSIGNED_VALUE
func (t *TimeVaryingValue) NewestValue() string {
	if t.IsEmpty() {
		return UNASSIGNED_VALUE
	}

	last, _ := t.entries.Max()
	return last.Value
}

// OldestValue returns the value of the first entry, or UNASSIGNED_VALUE
func (t *TimeVaryingValue) OldestValue() string {
	if t.IsEmpty() {
		return UNASSIGNED_VALUE
	}

	first, _ := t.entries.Min()
	return first.Value
}

// ValuesIn returns the sorted distinct values during interval
func (t *TimeVaryingValue) ValuesIn(interval TimeInterval) []string {
	if t.IsEmpty() {
		return nil
	}

	var result []string
	for _, entry := range t.candidates(interval) {
		if entry.Interval.Overlaps(interval) {
			result = append(result, entry.Value)
		}
	}

	slices.Sort(result)
	return slices.Compact(result)
}

// Entries returns all entries ascending, as a snapshot
func (t *TimeVaryingValue) Entries() []TimedValue {
	if t.IsEmpty() {
		return nil
	}

	result := make([]TimedValue, 0, t.entries.Len())
	t.entries.Ascend(func(item TimedValue) bool {
		result = append(result, item)
		return true
	})

	return result
}

// Descending returns all entries from the last one, as a snapshot
func (t *TimeVaryingValue) Descending() []TimedValue {
	if t.IsEmpty() {
		return nil
	}

	result := make([]TimedValue, 0, t.entries.Len())
	t.entries.Descend(func(item TimedValue) bool {
		result = append(result, item)
		return true
	})

	return result
}

// Copy returns an independent copy
func (t *TimeVaryingValue) Copy() *TimeVaryingValue {
	if t.IsEmpty() {
		return NewTimeVaryingValue()
	}

	return &TimeVaryingValue{entries: t.entries.Clone()}
}

// Equal returns true for same entries
func (t *TimeVaryingValue) Equal(other *TimeVaryingValue) bool {
	return slices.Equal(t.Entries(), other.Entries())
}
