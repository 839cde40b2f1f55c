// Package badgerdb stores history rows in a badger key value store.
package badgerdb

import (
	"bytes"
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
	"go.uber.org/zap"
)

// Key spaces
var (
	rowsSpace        = []byte("r\x00")
	tablesSpace      = []byte("t\x00")
	secondariesSpace = []byte("s\x00")
	propertiesSpace  = []byte("p\x00")
)

// zapLogger sends badger logs to zap
type zapLogger struct {
	*zap.SugaredLogger
}

// Warningf is the badger name for Warnf
func (l zapLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

// DB is a row store over badger
type DB struct {
	db *badger.DB
}

// Open opens a badger store in directory path, or in memory if path is empty
func Open(path string, logger *zap.SugaredLogger) (*DB, error) {
	options := badger.DefaultOptions(path)
	if path == "" {
		options = options.WithInMemory(true)
	}

	if logger == nil {
		options = options.WithLogger(nil)
	} else {
		options = options.WithLogger(zapLogger{logger}).WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open badger store %q", path)
	}

	return &DB{db: db}, nil
}

// View runs fn in a read only badger transaction
func (d *DB) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// Update runs fn in a badger transaction.
// Conflicts with concurrent transactions are returned as badger.ErrConflict
func (d *DB) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// Close closes the store
func (d *DB) Close() error {
	return d.db.Close()
}

// Tx wraps a badger transaction
type Tx struct {
	txn *badger.Txn
}

// concat returns a new slice with parts
func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// tablePrefix returns the prefix of all rows of a table
func tablePrefix(table storage.Table) []byte {
	return concat(rowsSpace, []byte(table), []byte{0})
}

// rowPrefix returns the prefix of all rows of a key in a table
func rowPrefix(table storage.Table, key []string) []byte {
	return concat(tablePrefix(table), storage.EncodeKey(key))
}

// decodeItem reads a row from a badger item with the table prefix
func decodeItem(item *badger.Item, table storage.Table) (storage.Row, error) {
	value, err := item.ValueCopy(nil)
	if err != nil {
		return storage.Row{}, err
	}

	return storage.DecodeRow(item.Key()[len(tablePrefix(table)):], value)
}

// isRowOf returns true if key is a row key of the key encoded as prefix
func isRowOf(key, prefix []byte) bool {
	return len(key) == len(prefix)+16 && bytes.HasPrefix(key, prefix)
}

// scan iterates keys with prefix from seek, calling fn until it returns false
func (t *Tx) scan(prefix, seek []byte, reverse bool, fn func(*badger.Item) (bool, error)) error {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.Reverse = reverse
	iterator := t.txn.NewIterator(options)
	defer iterator.Close()

	for iterator.Seek(seek); iterator.ValidForPrefix(prefix); iterator.Next() {
		if next, err := fn(iterator.Item()); err != nil {
			return err
		} else if !next {
			return nil
		}
	}

	return nil
}

func (t *Tx) Rows(table storage.Table, key []string, from, to lifetimes.Moment) ([]storage.Row, error) {
	if from > to {
		return nil, nil
	}

	var result []storage.Row
	prefix := rowPrefix(table, key)
	seek := concat(tablePrefix(table), storage.EncodeSeekKey(key, from, lifetimes.MinMoment))

	// last row starting before from
	err := t.scan(prefix, seek, true, func(item *badger.Item) (bool, error) {
		if !isRowOf(item.Key(), prefix) {
			return true, nil
		}

		row, err := decodeItem(item, table)
		if err != nil {
			return false, err
		} else if row.Interval.Start() < from {
			result = append(result, row)
			return false, nil
		}

		return true, nil
	})

	if err != nil {
		return nil, err
	}

	err = t.scan(prefix, seek, false, func(item *badger.Item) (bool, error) {
		if !isRowOf(item.Key(), prefix) {
			return true, nil
		}

		row, err := decodeItem(item, table)
		if err != nil {
			return false, err
		} else if row.Interval.Start() > to {
			return false, nil
		}

		result = append(result, row)
		return true, nil
	})

	if err != nil {
		return nil, err
	}

	return storage.FilterOverlapping(result, from, to), nil
}

func (t *Tx) Floor(table storage.Table, key []string, m lifetimes.Moment) (storage.Row, bool, error) {
	var result storage.Row
	var found bool
	prefix := rowPrefix(table, key)
	seek := concat(tablePrefix(table), storage.EncodeSeekKey(key, m, lifetimes.MaxMoment))
	err := t.scan(prefix, seek, true, func(item *badger.Item) (bool, error) {
		if !isRowOf(item.Key(), prefix) {
			return true, nil
		}

		row, err := decodeItem(item, table)
		result, found = row, err == nil
		return false, err
	})

	return result, found, err
}

// prefixRows returns all the rows with a given prefix, in a table
func (t *Tx) prefixRows(table storage.Table, prefix []byte, exactLength int) ([]storage.Row, error) {
	var result []storage.Row
	err := t.scan(prefix, prefix, false, func(item *badger.Item) (bool, error) {
		if exactLength > 0 && len(item.Key()) != exactLength {
			return true, nil
		}

		row, err := decodeItem(item, table)
		if err != nil {
			return false, err
		}

		result = append(result, row)
		return true, nil
	})

	return result, err
}

func (t *Tx) KeyRows(table storage.Table, key []string) ([]storage.Row, error) {
	prefix := rowPrefix(table, key)
	return t.prefixRows(table, prefix, len(prefix)+16)
}

func (t *Tx) TableRows(table storage.Table) ([]storage.Row, error) {
	return t.prefixRows(table, tablePrefix(table), 0)
}

// isEmpty returns true if table has no row
func (t *Tx) isEmpty(table storage.Table) (bool, error) {
	empty := true
	err := t.scan(tablePrefix(table), tablePrefix(table), false, func(*badger.Item) (bool, error) {
		empty = false
		return false, nil
	})

	return empty, err
}

func (t *Tx) Tables(prefix string) ([]storage.Table, error) {
	var candidates []storage.Table
	start := concat(tablesSpace, []byte(prefix))
	err := t.scan(start, start, false, func(item *badger.Item) (bool, error) {
		candidates = append(candidates, storage.Table(item.Key()[len(tablesSpace):]))
		return true, nil
	})

	if err != nil {
		return nil, err
	}

	var result []storage.Table
	for _, table := range candidates {
		if empty, err := t.isEmpty(table); err != nil {
			return nil, err
		} else if !empty {
			result = append(result, table)
		}
	}

	slices.Sort(result)
	return result, nil
}

func (t *Tx) Insert(table storage.Table, row storage.Row) error {
	if err := t.txn.Set(concat(tablesSpace, []byte(table)), []byte{}); err != nil {
		return err
	}

	key := concat(tablePrefix(table), storage.EncodeRowKey(row.Key, row.Interval))
	return t.txn.Set(key, storage.EncodeRowValue(row.DatumID, row.Value))
}

func (t *Tx) Delete(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	return t.txn.Delete(concat(tablePrefix(table), storage.EncodeRowKey(key, interval)))
}

// deletePrefix removes all keys starting with prefix
func (t *Tx) deletePrefix(prefix []byte) error {
	var keys [][]byte
	err := t.scan(prefix, prefix, false, func(item *badger.Item) (bool, error) {
		keys = append(keys, item.KeyCopy(nil))
		return true, nil
	})

	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := t.txn.Delete(key); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tx) DropTable(table storage.Table) error {
	if err := t.deletePrefix(tablePrefix(table)); err != nil {
		return err
	}

	return t.txn.Delete(concat(tablesSpace, []byte(table)))
}

func (t *Tx) SetSecondary(datumID int64, name, value string) error {
	return t.txn.Set(concat(secondariesSpace, storage.EncodeSecondaryKey(datumID, name)), []byte(value))
}

func (t *Tx) Secondaries(datumID int64) (map[string]string, error) {
	result := make(map[string]string)
	prefix := concat(secondariesSpace, storage.EncodeSecondaryPrefix(datumID))
	err := t.scan(prefix, prefix, false, func(item *badger.Item) (bool, error) {
		value, err := item.ValueCopy(nil)
		if err != nil {
			return false, err
		}

		result[storage.SecondaryName(item.Key()[len(secondariesSpace):])] = string(value)
		return true, nil
	})

	return result, err
}

func (t *Tx) DeleteSecondaries(datumID int64) error {
	return t.deletePrefix(concat(secondariesSpace, storage.EncodeSecondaryPrefix(datumID)))
}

func (t *Tx) Property(name string) (string, bool, error) {
	item, err := t.txn.Get(concat(propertiesSpace, []byte(name)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	value, err := item.ValueCopy(nil)
	return string(value), err == nil, err
}

func (t *Tx) SetProperty(name, value string) error {
	return t.txn.Set(concat(propertiesSpace, []byte(name)), []byte(value))
}

func (t *Tx) DeleteProperty(name string) error {
	return t.txn.Delete(concat(propertiesSpace, []byte(name)))
}

func (t *Tx) Properties(prefix string) (map[string]string, error) {
	result := make(map[string]string)
	start := concat(propertiesSpace, []byte(prefix))
	err := t.scan(start, start, false, func(item *badger.Item) (bool, error) {
		value, err := item.ValueCopy(nil)
		if err != nil {
			return false, err
		}

		result[string(item.Key()[len(propertiesSpace):])] = string(value)
		return true, nil
	})

	return result, err
}
