package lifetimes_test

import (
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/zefrenchwan/egonet.git/lifetimes"
)

func entry(start, end lifetimes.Moment, value string) lifetimes.TimedValue {
	return lifetimes.TimedValue{Interval: interval(start, end), Value: value}
}

func TestTimeValuesCoalescing(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 10), "A")
	values.SetValueAt(interval(10, 20), "A")
	expected := []lifetimes.TimedValue{entry(0, 20, "A")}
	if !slices.Equal(values.Entries(), expected) {
		t.Errorf("contiguous equal values should merge, got %v", values.Entries())
	}
}

func TestTimeValuesOverwriteKeepsOutside(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 100), "A")
	values.SetValueAt(interval(30, 60), "B")
	expected := []lifetimes.TimedValue{entry(0, 30, "A"), entry(30, 60, "B"), entry(60, 100, "A")}
	if !slices.Equal(values.Entries(), expected) {
		t.Errorf("expected %v, got %v", expected, values.Entries())
	}

	if values.GetValueAt(29) != "A" || values.GetValueAt(30) != "B" || values.GetValueAt(60) != "A" {
		t.Error("failed point queries")
	} else if values.GetValueAt(100) != lifetimes.UNASSIGNED_VALUE {
		t.Error("end is excluded")
	}

	// setting A back merges all
	values.SetValueAt(interval(30, 60), "A")
	if !slices.Equal(values.Entries(), []lifetimes.TimedValue{entry(0, 100, "A")}) {
		t.Errorf("failed merge back: %v", values.Entries())
	}
}

func TestTimeValuesPointInsideIntervalRefused(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 100), "A")
	if values.SetValueAt(lifetimes.NewTimePoint(50), "B") {
		t.Error("point inside interval should be refused")
	}

	if !slices.Equal(values.Entries(), []lifetimes.TimedValue{entry(0, 100, "A")}) {
		t.Error("refused operation should change nothing")
	}
}

func TestTimeValuesPointAtStartOfInterval(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 100), "A")
	if values.SetValueAt(lifetimes.NewTimePoint(0), "B") {
		t.Error("point at start would leave an interval open on the left")
	}

	if !values.SetValueAt(lifetimes.NewTimePoint(0), "A") {
		t.Error("same value at start should be accepted")
	} else if !slices.Equal(values.Entries(), []lifetimes.TimedValue{entry(0, 100, "A")}) {
		t.Errorf("same value at start should change nothing, got %v", values.Entries())
	}
}

func TestTimeValuesSameValueAtExcludedEnd(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 100), "A")
	if !values.SetValueAt(lifetimes.NewTimePoint(100), "A") {
		t.Fatal("point at excluded end should be accepted")
	}

	expected := []lifetimes.TimedValue{entry(0, 100, "A"), entry(100, 100, "A")}
	if !slices.Equal(values.Entries(), expected) {
		t.Errorf("point at end should be kept apart, got %v", values.Entries())
	} else if values.GetValueAt(100) != "A" {
		t.Error("value at end should be set")
	}

	// then an interval from the point merges all
	values.SetValueAt(interval(100, 120), "A")
	if !slices.Equal(values.Entries(), []lifetimes.TimedValue{entry(0, 120, "A")}) {
		t.Errorf("failed merge from point: %v", values.Entries())
	}
}

func TestTimeValuesPoints(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 50), "A")
	values.SetValueAt(lifetimes.NewTimePoint(50), "B")
	expected := []lifetimes.TimedValue{entry(0, 50, "A"), entry(50, 50, "B")}
	if !slices.Equal(values.Entries(), expected) {
		t.Errorf("point after interval: %v", values.Entries())
	}

	if values.GetValueAt(50) != "B" {
		t.Error("failed point lookup")
	}

	values.SetValueAt(lifetimes.NewTimePoint(50), "C")
	if values.GetValueAt(50) != "C" || values.Len() != 2 {
		t.Error("point should be replaced")
	}
}

func TestTimeValuesRemoval(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 100), "A")
	values.SetValueAt(interval(20, 40), lifetimes.UNASSIGNED_VALUE)
	values.SetValueAt(interval(60, 80), "")
	expected := []lifetimes.TimedValue{entry(0, 20, "A"), entry(40, 60, "A"), entry(80, 100, "A")}
	if !slices.Equal(values.Entries(), expected) {
		t.Errorf("bad removal: %v", values.Entries())
	}

	support := values.Support()
	if support.Len() != 3 || support.ContainsMoment(30) {
		t.Errorf("bad support %s", support)
	}

	if values.OldestValue() != "A" || values.NewestValue() != "A" {
		t.Fail()
	}
}

func TestTimeValuesSupportMergesDifferentValues(t *testing.T) {
	values := lifetimes.NewTimeVaryingValue()
	values.SetValueAt(interval(0, 10), "A")
	values.SetValueAt(interval(10, 20), "B")
	if values.Len() != 2 {
		t.Error("different values should not merge")
	}

	support := values.Support().Intervals()
	if !slices.Equal(support, []lifetimes.TimeInterval{interval(0, 20)}) {
		t.Errorf("support should be in normal form, got %v", support)
	}

	if got := values.ValuesIn(interval(5, 15)); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("bad values in interval %v", got)
	}

	if values.OldestValue() != "A" || values.NewestValue() != "B" {
		t.Error("failed oldest and newest")
	}
}

func TestTimeValuesRandomInvariant(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	values := lifetimes.NewTimeVaryingValue()
	reference := make([]string, 100)
	for index := range reference {
		reference[index] = lifetimes.UNASSIGNED_VALUE
	}

	for step := 0; step < 2000; step++ {
		start := lifetimes.Moment(random.Intn(95))
		end := start + lifetimes.Moment(1+random.Intn(5))
		value := strconv.Itoa(random.Intn(3))
		if random.Intn(4) == 0 {
			value = lifetimes.UNASSIGNED_VALUE
		}

		values.SetValueAt(interval(start, end), value)
		for m := start; m < end; m++ {
			reference[m] = value
		}

		entries := values.Entries()
		for index := 1; index < len(entries); index++ {
			previous, current := entries[index-1], entries[index]
			if previous.Interval.Overlaps(current.Interval) {
				t.Fatalf("overlapping entries %v", entries)
			} else if previous.Value == current.Value && previous.Interval.OverlapsOrIsContiguousWith(current.Interval) {
				t.Fatalf("equal values not merged %v", entries)
			}
		}
	}

	for m, expected := range reference {
		if got := values.GetValueAt(lifetimes.Moment(m)); got != expected {
			t.Fatalf("moment %d: expected %s, got %s", m, expected, got)
		}
	}
}
