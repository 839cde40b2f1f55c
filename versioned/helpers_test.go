package versioned_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap/zaptest"
)

// testClock is a settable wall clock
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Set(millis int64) {
	c.now = time.UnixMilli(millis)
}

// newTestStore returns an engine over an empty memory store, with ids from 1 and clock at 1000
func newTestStore(t *testing.T) (*versioned.Store, *testClock) {
	return newTestStoreOver(t, storage.NewMemoryStore())
}

func newTestStoreOver(t *testing.T, backend storage.Store) (*versioned.Store, *testClock) {
	t.Helper()
	clock := &testClock{}
	clock.Set(1000)
	store := versioned.New(backend, versioned.Options{
		Logger:  zaptest.NewLogger(t).Sugar(),
		Counter: versioned.NewSequenceCounter(1),
		Clock:   clock.Now,
	})

	t.Cleanup(func() { store.Close() })
	return store, clock
}

func interval(start, end int64) lifetimes.TimeInterval {
	return lifetimes.MustTimeInterval(lifetimes.Moment(start), lifetimes.Moment(end))
}

func point(m int64) lifetimes.TimeInterval {
	return lifetimes.NewTimePoint(lifetimes.Moment(m))
}

func alter(name string) elements.Alter {
	return elements.Alter{Name: name}
}

func tie(source, target string) elements.AlterAlterDyad {
	return elements.AlterAlterDyad{Source: source, Target: target}
}

func update(t *testing.T, store *versioned.Store, fn func(*versioned.Session) error) {
	t.Helper()
	require.NoError(t, store.Update(context.Background(), fn))
}

func view(t *testing.T, store *versioned.Store, fn func(*versioned.Session) error) {
	t.Helper()
	require.NoError(t, store.View(context.Background(), fn))
}

func declare(t *testing.T, store *versioned.Store, attributes ...schema.Attribute) {
	t.Helper()
	for _, attribute := range attributes {
		require.NoError(t, store.DeclareAttribute(context.Background(), attribute))
	}
}

func lifetimeOf(t *testing.T, store *versioned.Store, element elements.Element) []lifetimes.TimeInterval {
	t.Helper()
	var result []lifetimes.TimeInterval
	view(t, store, func(session *versioned.Session) error {
		value, err := session.GetLifetime(element)
		if err == nil {
			result = value.Intervals()
		}

		return err
	})

	return result
}

func historyOf(t *testing.T, store *versioned.Store, name string, element elements.Element) []lifetimes.TimedValue {
	t.Helper()
	history, err := store.GetAllValuesOverTime(context.Background(), name, element)
	require.NoError(t, err)
	return history.Entries()
}

func entry(start, end int64, value string) lifetimes.TimedValue {
	return lifetimes.TimedValue{Interval: interval(start, end), Value: value}
}

var (
	city = schema.Attribute{Name: "city", Domain: elements.ALTER, ValueType: schema.TEXT}
	age  = schema.Attribute{Name: "age", Domain: elements.ALTER, ValueType: schema.NUMBER}
	mood = schema.Attribute{Name: "mood", Domain: elements.EGO, ValueType: schema.FINITE_CHOICE, Choices: []string{"happy"}}
	// closeness is a symmetric alter alter attribute
	closeness = schema.Attribute{Name: "closeness", Domain: elements.ALTER_ALTER, ValueType: schema.TEXT, Direction: schema.SYMMETRIC}
	// advice is an asymmetric alter alter attribute
	advice = schema.Attribute{Name: "advice", Domain: elements.ALTER_ALTER, ValueType: schema.TEXT, Direction: schema.ASYMMETRIC}
	calls  = schema.Attribute{Name: "calls", Domain: elements.EGO_ALTER, ValueType: schema.NUMBER, DynamicType: schema.EVENT, Direction: schema.OUTWARD}
	knows  = schema.Attribute{Name: "knows", Domain: elements.EGO_ALTER, ValueType: schema.TEXT, Direction: schema.SYMMETRIC}
)
