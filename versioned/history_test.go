package versioned_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/storage/badgerdb"
	"github.com/zefrenchwan/egonet.git/storage/boltdb"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// lifetimeSecondaries returns the secondary values of the lifetime row of alter containing m
func lifetimeSecondaries(t *testing.T, store *versioned.Store, name string, m int64) map[string]string {
	t.Helper()
	var result map[string]string
	require.NoError(t, store.Backend().View(context.Background(), func(tx storage.Tx) error {
		rows, err := tx.KeyRows(storage.LifetimeTable(elements.ALTER), []string{name})
		require.NoError(t, err)
		for _, row := range rows {
			if row.Interval.ContainsMoment(lifetimes.Moment(m)) {
				result, err = tx.Secondaries(row.DatumID)
			}
		}

		return err
	}))

	return result
}

func TestBoundTimestamps(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddElement(ctx, alter("alice"), interval(0, 10)))
	assert.Equal(t, map[string]string{versioned.START_SET_AT: "1000", versioned.END_SET_AT: "1000"}, lifetimeSecondaries(t, store, "alice", 0))

	clock.Set(2000)
	require.NoError(t, store.AddElement(ctx, alter("alice"), interval(10, 20)))
	assert.Equal(t, map[string]string{versioned.START_SET_AT: "1000", versioned.END_SET_AT: "2000"}, lifetimeSecondaries(t, store, "alice", 0))

	clock.Set(3000)
	require.NoError(t, store.RemoveElement(ctx, alter("alice"), interval(5, 15)))
	assert.Equal(t, map[string]string{versioned.START_SET_AT: "1000", versioned.END_SET_AT: "3000"}, lifetimeSecondaries(t, store, "alice", 0))
	assert.Equal(t, map[string]string{versioned.START_SET_AT: "3000", versioned.END_SET_AT: "2000"}, lifetimeSecondaries(t, store, "alice", 15))
}

func TestSecondaryValuesFollowFragments(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	declare(t, store, city)
	require.NoError(t, store.SetAttributeValueAt(ctx, interval(0, 100), "city", alter("alice"), "Paris"))

	var original int64
	update(t, store, func(session *versioned.Session) error {
		var err error
		original, _, err = session.GetDatumIDAt(0, "city", alter("alice"))
		require.NoError(t, err)

		err = session.SetSecondaryAttributeValue(original, versioned.START_SET_AT, "0")
		assert.True(t, versioned.IsRejection(err, versioned.DuplicateName))
		err = session.SetSecondaryAttributeValue(original, "note", "")
		assert.True(t, versioned.IsRejection(err, versioned.IncompatibleValue))
		err = session.SetSecondaryAttributeValue(-1, "note", "met at school")
		assert.True(t, versioned.IsRejection(err, versioned.UnknownElement))
		return session.SetSecondaryAttributeValue(original, "note", "met at school")
	})

	require.NoError(t, store.SetAttributeValueAt(ctx, interval(50, 100), "city", alter("alice"), "Lyon"))

	view(t, store, func(session *versioned.Session) error {
		kept, _, err := session.GetDatumIDAt(10, "city", alter("alice"))
		require.NoError(t, err)
		assert.NotEqual(t, original, kept)
		values, err := session.GetSecondaryAttributeValues(kept)
		require.NoError(t, err)
		assert.Equal(t, "met at school", values["note"])

		replaced, _, err := session.GetDatumIDAt(60, "city", alter("alice"))
		require.NoError(t, err)
		values, err = session.GetSecondaryAttributeValues(replaced)
		require.NoError(t, err)
		assert.NotContains(t, values, "note")

		// no orphan
		values, err = session.GetSecondaryAttributeValues(original)
		assert.Empty(t, values)
		return err
	})
}

// scenario runs operations touching every table, then checks datum ids are unique
func scenario(t *testing.T, store *versioned.Store) {
	t.Helper()
	ctx := context.Background()
	declare(t, store, city, closeness, calls)
	require.NoError(t, store.SetAttributeValueAt(ctx, interval(0, 100), "city", alter("alice"), "Paris"))
	require.NoError(t, store.SetAttributeValueAt(ctx, interval(40, 60), "city", alter("alice"), "Lyon"))
	require.NoError(t, store.SetAttributeValueAt(ctx, interval(0, 50), "closeness", tie("alice", "bob"), "close"))
	require.NoError(t, store.SetAttributeValueAt(ctx, interval(10, 20), "calls", elements.EgoAlterDyad{Alter: "bob"}, "2"))
	require.NoError(t, store.RemoveElement(ctx, alter("bob"), interval(30, 40)))
	require.NoError(t, store.RenameAlter(ctx, "bob", "carol"))

	expected := []string{"alice", "carol"}
	entities, err := store.GetAllEntitiesAt(ctx, interval(0, 10))
	require.NoError(t, err)
	var names []string
	for _, entity := range entities {
		if current, ok := entity.(elements.Alter); ok {
			names = append(names, current.Name)
		}
	}

	assert.Equal(t, expected, names)
	assert.Equal(t, []lifetimes.TimedValue{entry(0, 30, "close"), entry(40, 50, "close")}, historyOf(t, store, "closeness", tie("carol", "alice")))

	seen := make(map[int64]bool)
	require.NoError(t, store.Backend().View(ctx, func(tx storage.Tx) error {
		tables, err := tx.Tables("")
		require.NoError(t, err)
		for _, table := range tables {
			rows, err := tx.TableRows(table)
			require.NoError(t, err)
			for _, row := range rows {
				assert.False(t, seen[row.DatumID], "datum %d used twice", row.DatumID)
				seen[row.DatumID] = true
			}
		}

		return nil
	}))
}

func TestScenarioOnBackends(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, _ := newTestStore(t)
		scenario(t, store)
	})

	t.Run("bolt", func(t *testing.T) {
		db, err := boltdb.Open(filepath.Join(t.TempDir(), "egonet.db"))
		require.NoError(t, err)
		store, _ := newTestStoreOver(t, db)
		scenario(t, store)
	})

	t.Run("badger", func(t *testing.T) {
		db, err := badgerdb.Open("", nil)
		require.NoError(t, err)
		store, _ := newTestStoreOver(t, db)
		scenario(t, store)
	})
}

func TestPropertyCounterIsPersisted(t *testing.T) {
	backend := storage.NewMemoryStore()
	store := versioned.New(backend, versioned.Options{})
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.AddElement(ctx, alter("alice"), interval(0, 10)))
	require.NoError(t, store.AddElement(ctx, alter("bob"), interval(0, 10)))

	require.NoError(t, backend.View(ctx, func(tx storage.Tx) error {
		next, found, err := tx.Property(versioned.NEXT_DATUM_PROPERTY)
		assert.True(t, found)
		assert.Equal(t, "3", next)
		return err
	}))

	// a rollback does not consume ids
	err := store.Update(ctx, func(session *versioned.Session) error {
		require.NoError(t, session.AddElement(alter("carol"), interval(0, 10)))
		return session.RemoveElement(elements.Ego{}, interval(0, 10))
	})

	assert.ErrorIs(t, err, versioned.ErrRejected)
	require.NoError(t, backend.View(ctx, func(tx storage.Tx) error {
		next, _, err := tx.Property(versioned.NEXT_DATUM_PROPERTY)
		assert.Equal(t, "3", next)
		return err
	}))
}

func TestImport(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	declare(t, store, city)
	facts := []versioned.Fact{
		{Kind: versioned.ADD_FACT, Element: alter("alice"), Interval: interval(0, 100)},
		{Kind: versioned.VALUE_FACT, Element: alter("alice"), Interval: interval(0, 10), Attribute: "unknown", Value: "x"},
		{Kind: versioned.VALUE_FACT, Element: alter("alice"), Interval: interval(0, 10), Attribute: "city", Value: "Paris"},
		{Kind: versioned.REMOVE_FACT, Element: alter("alice"), Interval: interval(50, 100)},
		{Kind: "unexpected", Element: alter("alice")},
	}

	report, err := store.Import(ctx, facts)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Applied)
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, 1, report.Rejected[0].Index)
	assert.Equal(t, versioned.UnknownAttribute, report.Rejected[0].Rejection.Kind)
	assert.Equal(t, 4, report.Rejected[1].Index)
	assert.Equal(t, []lifetimes.TimedValue{entry(0, 10, "Paris")}, historyOf(t, store, "city", alter("alice")))
}
