package badgerdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/storage/badgerdb"
	"github.com/zefrenchwan/egonet.git/storage/storagetest"
	"go.uber.org/zap/zaptest"
)

func TestBadgerStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		db, err := badgerdb.Open("", nil)
		require.NoError(t, err)
		return db
	})
}

func TestBadgerStoreOnDisk(t *testing.T) {
	directory := t.TempDir()
	db, err := badgerdb.Open(directory, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	row := storage.Row{Key: []string{"alice", "bob"}, Interval: lifetimes.Until(10), Value: "close", DatumID: 3}
	require.NoError(t, db.Update(context.Background(), func(tx storage.Tx) error {
		return tx.Insert("attribute/alter_alter/closeness", row)
	}))
	require.NoError(t, db.Close())

	db, err = badgerdb.Open(directory, nil)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.View(context.Background(), func(tx storage.Tx) error {
		found, ok, err := tx.Floor("attribute/alter_alter/closeness", []string{"alice", "bob"}, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, row, found)
		return nil
	}))
}
