package lifetimes_test

import (
	"slices"
	"testing"
	"time"

	"github.com/zefrenchwan/egonet.git/lifetimes"
)

func interval(start, end lifetimes.Moment) lifetimes.TimeInterval {
	return lifetimes.MustTimeInterval(start, end)
}

func TestIntervalCreation(t *testing.T) {
	if _, err := lifetimes.NewTimeInterval(10, 5); err == nil {
		t.Error("start after end should fail")
	}

	if i, err := lifetimes.NewTimeInterval(5, 5); err != nil {
		t.Fail()
	} else if !i.IsPoint() {
		t.Error("same bounds should make a point")
	}

	always := lifetimes.Always()
	if always.IsBoundedLeft() || always.IsBoundedRight() {
		t.Error("always should not be bounded")
	}

	if !lifetimes.Since(10).IsBoundedLeft() || lifetimes.Since(10).IsBoundedRight() {
		t.Error("since is only left bounded")
	}
}

func TestIntervalsOverlap(t *testing.T) {
	base := interval(0, 10)
	if !base.Overlaps(interval(5, 15)) || !interval(5, 15).Overlaps(base) {
		t.Error("failed partial overlap")
	}

	if base.Overlaps(interval(10, 20)) {
		t.Error("end is excluded")
	}

	if !base.Overlaps(lifetimes.NewTimePoint(0)) || !lifetimes.NewTimePoint(0).Overlaps(base) {
		t.Error("start is included")
	}

	if base.Overlaps(lifetimes.NewTimePoint(10)) {
		t.Error("point at end should not overlap")
	}

	if !lifetimes.NewTimePoint(3).Overlaps(lifetimes.NewTimePoint(3)) {
		t.Error("equal points overlap")
	} else if lifetimes.NewTimePoint(3).Overlaps(lifetimes.NewTimePoint(4)) {
		t.Error("different points do not overlap")
	}
}

func TestIntervalsContiguity(t *testing.T) {
	base := interval(0, 10)
	if !base.OverlapsOrIsContiguousWith(interval(10, 20)) {
		t.Error("touching intervals are contiguous")
	} else if base.OverlapsOrIsContiguousWith(interval(11, 20)) {
		t.Error("separated intervals")
	} else if base.OverlapsOrIsContiguousWith(lifetimes.NewTimePoint(10)) {
		t.Error("point at excluded end does not touch")
	} else if !base.OverlapsOrIsContiguousWith(lifetimes.NewTimePoint(0)) {
		t.Error("point at start belongs to interval")
	} else if lifetimes.NewTimePoint(3).OverlapsOrIsContiguousWith(lifetimes.NewTimePoint(4)) {
		t.Error("different points do not touch")
	}

	union := base.UnionWithContiguous(interval(10, 20))
	if union != interval(0, 20) {
		t.Errorf("bad union %s", union)
	}
}

func TestIntervalUnionSeparatedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("union of separated intervals should panic")
		}
	}()

	interval(0, 10).UnionWithContiguous(interval(20, 30))
}

func TestIntervalsContains(t *testing.T) {
	base := interval(0, 10)
	if !base.Contains(interval(2, 5)) || !base.Contains(base) {
		t.Error("failed inclusion")
	} else if base.Contains(interval(5, 15)) {
		t.Error("partial overlap is not inclusion")
	} else if !base.Contains(lifetimes.NewTimePoint(0)) || base.Contains(lifetimes.NewTimePoint(10)) {
		t.Error("failed point inclusion")
	}

	point := lifetimes.NewTimePoint(5)
	if !point.Contains(point) {
		t.Error("point contains itself")
	} else if point.Contains(interval(5, 6)) {
		t.Error("point contains only an equal point")
	}
}

func TestIntervalsMinus(t *testing.T) {
	base := interval(0, 100)
	result := base.Minus(interval(30, 60))
	expected := []lifetimes.TimeInterval{interval(0, 30), interval(60, 100)}
	if !slices.Equal(result, expected) {
		t.Errorf("expected %v, got %v", expected, result)
	}

	if r := base.Minus(lifetimes.NewTimePoint(50)); len(r) != 1 || r[0] != base {
		t.Error("removing a point keeps then interval")
	}

	if r := lifetimes.NewTimePoint(50).Minus(interval(0, 100)); len(r) != 0 {
		t.Error("point in removed interval should disappear")
	}

	if r := base.Minus(interval(200, 300)); len(r) != 1 || r[0] != base {
		t.Error("separated removal changes nothing")
	}
}

func TestIntervalsCompare(t *testing.T) {
	values := []lifetimes.TimeInterval{interval(5, 10), interval(0, 20), interval(0, 10), lifetimes.NewTimePoint(0)}
	slices.SortFunc(values, lifetimes.CompareIntervals)
	expected := []lifetimes.TimeInterval{lifetimes.NewTimePoint(0), interval(0, 10), interval(0, 20), interval(5, 10)}
	if !slices.Equal(values, expected) {
		t.Errorf("bad order %v", values)
	}
}

func TestIntervalSerde(t *testing.T) {
	now := lifetimes.FromTime(time.Now().UTC().Truncate(time.Second))
	for _, value := range []lifetimes.TimeInterval{lifetimes.Always(), lifetimes.Since(now), lifetimes.Until(now), lifetimes.NewTimePoint(now)} {
		if parsed, err := lifetimes.ParseTimeInterval(value.String()); err != nil {
			t.Errorf("failed to parse %s: %s", value, err.Error())
		} else if parsed != value {
			t.Errorf("expected %s, got %s", value, parsed)
		}
	}

	if _, err := lifetimes.ParseTimeInterval("[12;3["); err == nil {
		t.Error("inverted bounds should fail")
	}

	if m, err := lifetimes.ParseMoment("1500"); err != nil || m != 1500 {
		t.Error("raw milliseconds should be accepted")
	}
}

func TestIntervalSerdeKeepsMilliseconds(t *testing.T) {
	for _, value := range []lifetimes.TimeInterval{interval(1000, 1500), interval(10, 20), lifetimes.NewTimePoint(1234), lifetimes.Since(999)} {
		if parsed, err := lifetimes.ParseTimeInterval(value.String()); err != nil {
			t.Errorf("failed to parse %s: %s", value, err.Error())
		} else if parsed != value {
			t.Errorf("expected %s, got %s", value, parsed)
		}
	}

	if s := interval(10, 20).String(); s != "[1970-01-01T00:00:00.010;1970-01-01T00:00:00.020[" {
		t.Errorf("unexpected serialization %s", s)
	}

	if m, err := lifetimes.ParseMoment("1970-01-01T00:00:02"); err != nil || m != 2000 {
		t.Error("dates without milliseconds should be accepted")
	}
}
