package storage_test

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
)

func TestCodecRowKeys(t *testing.T) {
	keys := [][]string{{}, {"alice"}, {"a\x00b", "c"}, {"bob", "IN"}}
	intervals := []lifetimes.TimeInterval{lifetimes.Always(), lifetimes.NewTimePoint(-5), lifetimes.MustTimeInterval(10, 20)}
	for _, key := range keys {
		for _, interval := range intervals {
			decodedKey, decodedInterval, err := storage.DecodeRowKey(storage.EncodeRowKey(key, interval))
			require.NoError(t, err)
			assert.Equal(t, key, decodedKey)
			assert.Equal(t, interval, decodedInterval)
		}
	}
}

func TestCodecPreservesOrder(t *testing.T) {
	rows := []storage.Row{
		{Key: []string{"b"}, Interval: lifetimes.MustTimeInterval(0, 10)},
		{Key: []string{"a"}, Interval: lifetimes.Since(-100)},
		{Key: []string{"a\x00"}, Interval: lifetimes.Always()},
		{Key: []string{"ab"}, Interval: lifetimes.Until(0)},
		{Key: []string{"a"}, Interval: lifetimes.MustTimeInterval(-100, 5)},
		{Key: []string{"a"}, Interval: lifetimes.NewTimePoint(-100)},
		{Key: []string{"a"}, Interval: lifetimes.Until(3)},
	}

	byRows := slices.Clone(rows)
	slices.SortFunc(byRows, storage.CompareRows)
	byBytes := slices.Clone(rows)
	slices.SortFunc(byBytes, func(a, b storage.Row) int {
		return bytes.Compare(storage.EncodeRowKey(a.Key, a.Interval), storage.EncodeRowKey(b.Key, b.Interval))
	})

	assert.Equal(t, byRows, byBytes)
}

func TestCodecValues(t *testing.T) {
	datumID, value, err := storage.DecodeRowValue(storage.EncodeRowValue(42, "Paris"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), datumID)
	assert.Equal(t, "Paris", value)

	_, _, err = storage.DecodeRowValue([]byte{1, 2})
	assert.Error(t, err)

	assert.Equal(t, "note", storage.SecondaryName(storage.EncodeSecondaryKey(7, "note")))
}
