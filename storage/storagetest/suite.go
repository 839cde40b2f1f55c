// Package storagetest checks that a row store behaves as the engine expects.
package storagetest

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
)

// Opener returns an empty store, closed by the caller
type Opener func(t *testing.T) storage.Store

const (
	values storage.Table = "attribute/alter/city"
	others storage.Table = "attribute/alter/age"
)

func interval(start, end lifetimes.Moment) lifetimes.TimeInterval {
	return lifetimes.MustTimeInterval(start, end)
}

func row(key string, start, end lifetimes.Moment, value string, datumID int64) storage.Row {
	return storage.Row{Key: []string{key}, Interval: interval(start, end), Value: value, DatumID: datumID}
}

// Run executes all the checks against stores built by open
func Run(t *testing.T, open Opener) {
	t.Run("rows", func(t *testing.T) { testRows(t, open) })
	t.Run("floor", func(t *testing.T) { testFloor(t, open) })
	t.Run("keys", func(t *testing.T) { testKeys(t, open) })
	t.Run("tables", func(t *testing.T) { testTables(t, open) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, open) })
	t.Run("readonly", func(t *testing.T) { testReadOnly(t, open) })
	t.Run("secondaries", func(t *testing.T) { testSecondaries(t, open) })
	t.Run("properties", func(t *testing.T) { testProperties(t, open) })
}

// withStore opens a store and closes it at the end of the test
func withStore(t *testing.T, open Opener) storage.Store {
	store := open(t)
	t.Cleanup(func() { store.Close() })
	return store
}

// insert adds rows in a transaction
func insert(t *testing.T, store storage.Store, table storage.Table, rows ...storage.Row) {
	t.Helper()
	err := store.Update(context.Background(), func(tx storage.Tx) error {
		for _, current := range rows {
			if err := tx.Insert(table, current); err != nil {
				return err
			}
		}

		return nil
	})

	require.NoError(t, err)
}

// intervalsOf returns the intervals of rows
func intervalsOf(rows []storage.Row) []lifetimes.TimeInterval {
	result := make([]lifetimes.TimeInterval, 0, len(rows))
	for _, current := range rows {
		result = append(result, current.Interval)
	}

	return result
}

func testRows(t *testing.T, open Opener) {
	store := withStore(t, open)
	insert(t, store, values,
		row("alice", 0, 50, "Paris", 1),
		row("alice", 50, 50, "Lyon", 2),
		row("alice", 60, 100, "Lyon", 3),
		row("alicia", 0, 100, "Nice", 4),
		row("al", 0, 100, "Nice", 5),
	)

	err := store.View(context.Background(), func(tx storage.Tx) error {
		rows, err := tx.Rows(values, []string{"alice"}, 50, 60)
		require.NoError(t, err)
		assert.Equal(t, []lifetimes.TimeInterval{interval(0, 50), interval(50, 50), interval(60, 100)}, intervalsOf(rows))

		rows, err = tx.Rows(values, []string{"alice"}, 10, 20)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Paris", rows[0].Value)
		assert.Equal(t, int64(1), rows[0].DatumID)

		rows, err = tx.Rows(values, []string{"alice"}, 101, 200)
		require.NoError(t, err)
		assert.Empty(t, rows)

		rows, err = tx.Rows(values, []string{"alice"}, lifetimes.MinMoment, lifetimes.MaxMoment)
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		rows, err = tx.Rows("attribute/alter/unknown", []string{"alice"}, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})

	require.NoError(t, err)
}

func testFloor(t *testing.T, open Opener) {
	store := withStore(t, open)
	insert(t, store, values,
		row("alice", 0, 50, "Paris", 1),
		row("alice", 50, 50, "Lyon", 2),
		row("bob", 10, 20, "Nice", 3),
	)

	err := store.View(context.Background(), func(tx storage.Tx) error {
		found, ok, err := tx.Floor(values, []string{"alice"}, 49)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Paris", found.Value)

		found, ok, err = tx.Floor(values, []string{"alice"}, 50)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Lyon", found.Value)

		_, ok, err = tx.Floor(values, []string{"alice"}, -1)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = tx.Floor(values, []string{"bob"}, 5)
		require.NoError(t, err)
		assert.False(t, ok, "floor should not cross keys")

		found, ok, err = tx.Floor(values, []string{"bob"}, lifetimes.MaxMoment)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Nice", found.Value)
		return nil
	})

	require.NoError(t, err)
}

func testKeys(t *testing.T, open Opener) {
	store := withStore(t, open)
	dyads := storage.Table("lifetime/alter_alter")
	insert(t, store, dyads,
		storage.Row{Key: []string{"a", "b"}, Interval: interval(0, 10), DatumID: 1},
		storage.Row{Key: []string{"a", "b"}, Interval: lifetimes.Since(20), DatumID: 2},
		storage.Row{Key: []string{"a", "bc"}, Interval: lifetimes.Always(), DatumID: 3},
		storage.Row{Key: []string{"ab", "c"}, Interval: lifetimes.Until(0), DatumID: 4},
	)

	err := store.Update(context.Background(), func(tx storage.Tx) error {
		rows, err := tx.KeyRows(dyads, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []lifetimes.TimeInterval{interval(0, 10), lifetimes.Since(20)}, intervalsOf(rows))

		all, err := tx.TableRows(dyads)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []string{"a", "b"}, all[0].Key)
		assert.Equal(t, []string{"a", "bc"}, all[2].Key)
		assert.Equal(t, []string{"ab", "c"}, all[3].Key)

		require.NoError(t, tx.Delete(dyads, []string{"a", "b"}, interval(0, 10)))
		require.NoError(t, tx.Delete(dyads, []string{"a", "b"}, interval(0, 11)), "deleting a missing row is fine")
		rows, err = tx.KeyRows(dyads, []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		return nil
	})

	require.NoError(t, err)
}

func testTables(t *testing.T, open Opener) {
	store := withStore(t, open)
	insert(t, store, values, row("alice", 0, 10, "Paris", 1))
	insert(t, store, others, row("alice", 0, 10, "12", 2))
	insert(t, store, "lifetime/alter", row("alice", 0, 10, "", 3))

	err := store.Update(context.Background(), func(tx storage.Tx) error {
		tables, err := tx.Tables("attribute/alter/")
		require.NoError(t, err)
		assert.Equal(t, []storage.Table{others, values}, tables)

		require.NoError(t, tx.DropTable(values))
		tables, err = tx.Tables("attribute/")
		require.NoError(t, err)
		assert.Equal(t, []storage.Table{others}, tables)

		rows, err := tx.TableRows(values)
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})

	require.NoError(t, err)
}

func testRollback(t *testing.T, open Opener) {
	store := withStore(t, open)
	insert(t, store, values, row("alice", 0, 10, "Paris", 1))

	failure := errors.New("failure")
	err := store.Update(context.Background(), func(tx storage.Tx) error {
		require.NoError(t, tx.Insert(values, row("alice", 10, 20, "Lyon", 2)))
		require.NoError(t, tx.Delete(values, []string{"alice"}, interval(0, 10)))
		require.NoError(t, tx.SetProperty("next_datum_id", "3"))

		rows, err := tx.KeyRows(values, []string{"alice"})
		require.NoError(t, err)
		assert.Len(t, rows, 1, "transaction should see its own writes")
		assert.Equal(t, "Lyon", rows[0].Value)
		return failure
	})

	assert.True(t, errors.Is(err, failure))

	err = store.View(context.Background(), func(tx storage.Tx) error {
		rows, err := tx.KeyRows(values, []string{"alice"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Paris", rows[0].Value)

		_, found, err := tx.Property("next_datum_id")
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})

	require.NoError(t, err)
}

func testReadOnly(t *testing.T, open Opener) {
	store := withStore(t, open)
	err := store.View(context.Background(), func(tx storage.Tx) error {
		return tx.Insert(values, row("alice", 0, 10, "Paris", 1))
	})

	assert.Error(t, err)
}

func testSecondaries(t *testing.T, open Opener) {
	store := withStore(t, open)
	err := store.Update(context.Background(), func(tx storage.Tx) error {
		require.NoError(t, tx.SetSecondary(1, "note", "met at school"))
		require.NoError(t, tx.SetSecondary(1, "start_set_at", "1000"))
		require.NoError(t, tx.SetSecondary(2, "note", "other"))
		require.NoError(t, tx.SetSecondary(256, "note", "far"))
		return nil
	})

	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx storage.Tx) error {
		secondaries, err := tx.Secondaries(1)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"note": "met at school", "start_set_at": "1000"}, secondaries)

		require.NoError(t, tx.DeleteSecondaries(1))
		secondaries, err = tx.Secondaries(1)
		require.NoError(t, err)
		assert.Empty(t, secondaries)

		secondaries, err = tx.Secondaries(2)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"note": "other"}, secondaries)

		secondaries, err = tx.Secondaries(256)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"note": "far"}, secondaries)
		return nil
	})

	require.NoError(t, err)
}

func testProperties(t *testing.T, open Opener) {
	store := withStore(t, open)
	err := store.Update(context.Background(), func(tx storage.Tx) error {
		require.NoError(t, tx.SetProperty("attribute/alter/city", "{}"))
		require.NoError(t, tx.SetProperty("attribute/alter/age", "{}"))
		require.NoError(t, tx.SetProperty("attribute/ego/age", "{}"))
		require.NoError(t, tx.SetProperty("next_datum_id", "12"))
		return nil
	})

	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx storage.Tx) error {
		value, found, err := tx.Property("next_datum_id")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "12", value)

		properties, err := tx.Properties("attribute/alter/")
		require.NoError(t, err)
		assert.Len(t, properties, 2)

		require.NoError(t, tx.DeleteProperty("attribute/alter/age"))
		properties, err = tx.Properties("attribute/")
		require.NoError(t, err)
		assert.Len(t, properties, 2)
		return nil
	})

	require.NoError(t, err)
}
