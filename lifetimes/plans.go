package lifetimes

import "strings"

// UNASSIGNED_VALUE is the marker for "no value", setting it removes values
const UNASSIGNED_VALUE = "N/A"

// IsUnassigned returns true for the unassigned marker or a blank value
func IsUnassigned(value string) bool {
	return value == UNASSIGNED_VALUE || strings.TrimSpace(value) == ""
}

// TimedValue is a value during an interval.
// Lifetimes use it with no value.
type TimedValue struct {
	Interval TimeInterval
	Value    string
}

// Fragment is an entry to insert after a change.
// Indexes refer to the stored entries the change was planned on.
type Fragment struct {
	TimedValue
	// StartFrom is the index of the stored entry the start bound comes from, -1 for a new bound
	StartFrom int
	// EndFrom is the index of the stored entry the end bound comes from, -1 for a new bound
	EndFrom int
	// Sources are the indexes of the stored entries this fragment descends from
	Sources []int
}

// Change is the result of an interval operation on stored entries.
// Applying a change means: delete the removed entries, then insert the fragments.
type Change struct {
	// Removed are the indexes of stored entries to delete
	Removed []int
	// Inserted are the entries to insert
	Inserted []Fragment
}

// IsEmpty returns true if applying the change would change nothing
func (c Change) IsEmpty() bool {
	return len(c.Removed) == 0 && len(c.Inserted) == 0
}

// newFragment returns a fragment with no source
func newFragment(interval TimeInterval, value string) Fragment {
	return Fragment{
		TimedValue: TimedValue{Interval: interval, Value: value},
		StartFrom:  -1,
		EndFrom:    -1,
	}
}

// boundsFrom sets bound origins from the sources whose bounds match the fragment bounds
func (f *Fragment) boundsFrom(stored []TimedValue) {
	for _, index := range f.Sources {
		current := stored[index].Interval
		if f.StartFrom < 0 && current.start == f.Interval.start {
			f.StartFrom = index
		}

		if f.EndFrom < 0 && current.end == f.Interval.end {
			f.EndFrom = index
		}
	}
}

// PlanUnion plans the union of interval with stored, a set of separated intervals.
// Stored may contain entries that are not candidates, they are ignored.
// Every entry overlapping or touching interval is merged into a single one.
func PlanUnion(stored []TimedValue, interval TimeInterval) Change {
	var change Change
	merged := interval
	for index, current := range stored {
		if current.Interval.OverlapsOrIsContiguousWith(interval) {
			change.Removed = append(change.Removed, index)
			merged = merged.UnionWithContiguous(current.Interval)
		}
	}

	// union within an existing interval changes nothing
	if len(change.Removed) == 1 && stored[change.Removed[0]].Interval == merged {
		return Change{}
	}

	fragment := newFragment(merged, "")
	fragment.Sources = change.Removed
	fragment.boundsFrom(stored)
	change.Inserted = []Fragment{fragment}
	return change
}

// PlanCutOut plans the removal of interval from stored.
// A time point removes only an equal stored time point.
// Otherwise, each overlapping entry is replaced by its parts before and after interval
func PlanCutOut(stored []TimedValue, interval TimeInterval) Change {
	var change Change
	if interval.IsPoint() {
		for index, current := range stored {
			if current.Interval == interval {
				change.Removed = append(change.Removed, index)
			}
		}

		return change
	}

	for index, current := range stored {
		if !current.Interval.Overlaps(interval) {
			continue
		}

		change.Removed = append(change.Removed, index)
		change.Inserted = append(change.Inserted, remainders(index, current, interval)...)
	}

	return change
}

// remainders returns the fragments of stored entry (at index) outside of cut
func remainders(index int, current TimedValue, cut TimeInterval) []Fragment {
	var result []Fragment
	for _, part := range current.Interval.Minus(cut) {
		fragment := newFragment(part, current.Value)
		fragment.Sources = []int{index}
		if part.start == current.Interval.start {
			fragment.StartFrom = index
		}

		if part.end == current.Interval.end {
			fragment.EndFrom = index
		}

		result = append(result, fragment)
	}

	return result
}

// PlanSetValue plans to set value during interval over stored, a set of separated values.
// Values outside interval are kept, neighbours with the same value are merged.
// An unassigned value just removes values during interval.
// Setting a time point within a stored interval, its start included, to another value is refused:
// what would remain of the stored interval is not closed on the left.
// Result is then false and change is empty. With the same value, it changes nothing.
func PlanSetValue(stored []TimedValue, interval TimeInterval, value string) (Change, bool) {
	var change Change
	if interval.IsPoint() {
		for _, current := range stored {
			if current.Interval.IsPoint() || !current.Interval.ContainsMoment(interval.start) {
				continue
			} else if current.Value == value {
				return change, true
			}

			return change, false
		}
	}

	unassigned := IsUnassigned(value)
	target := interval
	var absorbed []int
	for index, current := range stored {
		if !current.Interval.OverlapsOrIsContiguousWith(interval) {
			continue
		} else if !unassigned && current.Value == value {
			absorbed = append(absorbed, index)
			change.Removed = append(change.Removed, index)
			target = target.UnionWithContiguous(current.Interval)
			continue
		} else if !current.Interval.Overlaps(interval) {
			// touching neighbour with another value, no change
			continue
		}

		change.Removed = append(change.Removed, index)
		change.Inserted = append(change.Inserted, remainders(index, current, interval)...)
	}

	if unassigned {
		return change, true
	}

	// same value already set during the full interval
	if len(change.Removed) == 1 && len(absorbed) == 1 && stored[absorbed[0]].Interval == target {
		return Change{}, true
	}

	fragment := newFragment(target, value)
	fragment.Sources = absorbed
	fragment.boundsFrom(stored)
	change.Inserted = append(change.Inserted, fragment)
	return change, true
}
