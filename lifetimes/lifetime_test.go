package lifetimes_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// checkNormalForm fails if two consecutive intervals touch or overlap
func checkNormalForm(t *testing.T, l *lifetimes.Lifetime) {
	t.Helper()
	intervals := l.Intervals()
	for index := 1; index < len(intervals); index++ {
		if intervals[index-1].OverlapsOrIsContiguousWith(intervals[index]) {
			t.Fatalf("not in normal form: %s", l)
		}
	}
}

func TestLifetimeUnionMerges(t *testing.T) {
	l := lifetimes.NewLifetime()
	l.Union(interval(0, 10))
	l.Union(interval(20, 30))
	l.Union(interval(40, 50))
	if l.Len() != 3 {
		t.Fatal("separated intervals should stay separated")
	}

	// touches first, overlaps second
	l.Union(interval(10, 25))
	expected := []lifetimes.TimeInterval{interval(0, 30), interval(40, 50)}
	if !slices.Equal(l.Intervals(), expected) {
		t.Errorf("bad union: %s", l)
	}

	l.Union(interval(-10, 100))
	if !slices.Equal(l.Intervals(), []lifetimes.TimeInterval{interval(-10, 100)}) {
		t.Errorf("bad covering union: %s", l)
	}
}

func TestLifetimeUnionIdempotence(t *testing.T) {
	once := lifetimes.NewLifetime(interval(0, 10), interval(30, 40))
	once.Union(interval(5, 35))
	twice := once.Copy()
	twice.Union(interval(5, 35))
	if !once.Equal(twice) {
		t.Error("union should be idempotent")
	}
}

func TestLifetimeUnionCutOutInverse(t *testing.T) {
	for _, value := range []lifetimes.TimeInterval{interval(0, 10), lifetimes.Always(), lifetimes.Since(5), lifetimes.Until(5)} {
		l := lifetimes.NewLifetime()
		l.Union(value)
		l.CutOut(value)
		if !l.IsEmpty() {
			t.Errorf("union then cut out of %s should be empty, got %s", value, l)
		}
	}
}

func TestLifetimeCutOutSplits(t *testing.T) {
	l := lifetimes.NewLifetime(interval(0, 100), interval(200, 300))
	l.CutOut(interval(50, 250))
	expected := []lifetimes.TimeInterval{interval(0, 50), interval(250, 300)}
	if !slices.Equal(l.Intervals(), expected) {
		t.Errorf("bad split: %s", l)
	}

	l.CutOut(interval(10, 20))
	expected = []lifetimes.TimeInterval{interval(0, 10), interval(20, 50), interval(250, 300)}
	if !slices.Equal(l.Intervals(), expected) {
		t.Errorf("bad inner split: %s", l)
	}
}

func TestLifetimePointRemovalPolicy(t *testing.T) {
	l := lifetimes.NewLifetime(interval(0, 100))
	l.CutOut(lifetimes.NewTimePoint(50))
	if !slices.Equal(l.Intervals(), []lifetimes.TimeInterval{interval(0, 100)}) {
		t.Error("removing a point inside an interval should change nothing")
	}

	points := lifetimes.NewLifetime(lifetimes.NewTimePoint(50))
	points.CutOut(lifetimes.NewTimePoint(50))
	if !points.IsEmpty() {
		t.Error("removing a stored point should empty lifetime")
	}
}

func TestLifetimeUnionPointAtEnd(t *testing.T) {
	l := lifetimes.NewLifetime(interval(0, 100))
	l.Union(lifetimes.NewTimePoint(100))
	expected := []lifetimes.TimeInterval{interval(0, 100), lifetimes.NewTimePoint(100)}
	if !slices.Equal(l.Intervals(), expected) {
		t.Errorf("point at end should stay separated, got %s", l)
	} else if !l.ContainsMoment(100) {
		t.Error("point at end should belong to lifetime")
	}

	checkNormalForm(t, l)

	// an interval starting at the point contains it
	l.Union(interval(100, 150))
	if !slices.Equal(l.Intervals(), []lifetimes.TimeInterval{interval(0, 150)}) {
		t.Errorf("failed union over point: %s", l)
	}

	l.Union(lifetimes.NewTimePoint(0))
	if l.Len() != 1 {
		t.Error("point at start is already in lifetime")
	}
}

func TestLifetimeQueries(t *testing.T) {
	l := lifetimes.NewLifetime(interval(0, 10), interval(20, 30), lifetimes.NewTimePoint(50))
	if !l.ContainsMoment(0) || l.ContainsMoment(10) || !l.ContainsMoment(25) || !l.ContainsMoment(50) {
		t.Error("failed moment queries")
	}

	if !l.Overlaps(interval(5, 25)) || l.Overlaps(interval(10, 20)) || !l.Overlaps(interval(40, 60)) {
		t.Error("failed overlap queries")
	}

	if !l.Contains(interval(2, 8)) || l.Contains(interval(5, 25)) {
		t.Error("failed contains queries")
	}

	descending := l.Descending()
	if len(descending) != 3 || descending[0] != lifetimes.NewTimePoint(50) {
		t.Error("failed descending iteration")
	}

	if first, ok := l.First(); !ok || first != interval(0, 10) {
		t.Error("failed first")
	} else if last, ok := l.Last(); !ok || last != lifetimes.NewTimePoint(50) {
		t.Error("failed last")
	}
}

func TestLifetimeRandomNormalForm(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	l := lifetimes.NewLifetime()
	reference := make([]bool, 200)
	for step := 0; step < 2000; step++ {
		start := lifetimes.Moment(random.Intn(190))
		end := start + lifetimes.Moment(1+random.Intn(10))
		if random.Intn(3) == 0 {
			l.CutOut(interval(start, end))
			for m := start; m < end; m++ {
				reference[m] = false
			}
		} else {
			l.Union(interval(start, end))
			for m := start; m < end; m++ {
				reference[m] = true
			}
		}

		checkNormalForm(t, l)
	}

	for m, expected := range reference {
		if l.ContainsMoment(lifetimes.Moment(m)) != expected {
			t.Fatalf("moment %d: expected %v", m, expected)
		}
	}
}
