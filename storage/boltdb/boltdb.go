// Package boltdb stores history rows in a bolt file.
package boltdb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
	bolt "go.etcd.io/bbolt"
)

// Bucket is the name of a top level bucket
type Bucket []byte

var (
	// rowsBucket contains a nested bucket per table
	rowsBucket = Bucket("rows")
	// secondariesBucket contains secondary values per datum
	secondariesBucket = Bucket("secondaries")
	// propertiesBucket contains global properties
	propertiesBucket = Bucket("properties")
)

// DB is a row store over a bolt database
type DB struct {
	db       *bolt.DB
	filePath string
}

// Open opens (or creates) the database at path
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}

	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open file: %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []Bucket{rowsBucket, secondariesBucket, propertiesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "creating bucket: %s", bucket)
			}
		}

		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, filePath: path}, nil
}

// Path returns the file of the database
func (d *DB) Path() string {
	return d.filePath
}

// View runs fn in a read only bolt transaction
func (d *DB) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Update runs fn in a bolt write transaction
func (d *DB) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Tx wraps a bolt transaction
type Tx struct {
	tx *bolt.Tx
}

// table returns the bucket of a table, nil if it does not exist
func (t *Tx) table(table storage.Table) *bolt.Bucket {
	return t.tx.Bucket(rowsBucket).Bucket([]byte(table))
}

// isRowOf returns true if k is the key of a row for the key encoded as prefix
func isRowOf(k, prefix []byte) bool {
	return k != nil && len(k) == len(prefix)+16 && bytes.HasPrefix(k, prefix)
}

func (t *Tx) Rows(table storage.Table, key []string, from, to lifetimes.Moment) ([]storage.Row, error) {
	bucket := t.table(table)
	if bucket == nil || from > to {
		return nil, nil
	}

	var result []storage.Row
	prefix := storage.EncodeKey(key)
	seek := storage.EncodeSeekKey(key, from, lifetimes.MinMoment)
	cursor := bucket.Cursor()

	// last row starting before from
	var k, v []byte
	if found, _ := cursor.Seek(seek); found == nil {
		k, v = cursor.Last()
	} else {
		k, v = cursor.Prev()
	}

	if isRowOf(k, prefix) {
		row, err := storage.DecodeRow(k, v)
		if err != nil {
			return nil, err
		}

		result = append(result, row)
	}

	for k, v := cursor.Seek(seek); isRowOf(k, prefix); k, v = cursor.Next() {
		row, err := storage.DecodeRow(k, v)
		if err != nil {
			return nil, err
		} else if row.Interval.Start() > to {
			break
		}

		result = append(result, row)
	}

	return storage.FilterOverlapping(result, from, to), nil
}

func (t *Tx) Floor(table storage.Table, key []string, m lifetimes.Moment) (storage.Row, bool, error) {
	var result storage.Row
	bucket := t.table(table)
	if bucket == nil {
		return result, false, nil
	}

	seek := storage.EncodeSeekKey(key, m, lifetimes.MaxMoment)
	cursor := bucket.Cursor()
	k, v := cursor.Seek(seek)
	if k == nil {
		k, v = cursor.Last()
	} else if !bytes.Equal(k, seek) {
		k, v = cursor.Prev()
	}

	if !isRowOf(k, storage.EncodeKey(key)) {
		return result, false, nil
	}

	row, err := storage.DecodeRow(k, v)
	return row, err == nil, err
}

func (t *Tx) KeyRows(table storage.Table, key []string) ([]storage.Row, error) {
	bucket := t.table(table)
	if bucket == nil {
		return nil, nil
	}

	var result []storage.Row
	prefix := storage.EncodeKey(key)
	cursor := bucket.Cursor()
	for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
		if !isRowOf(k, prefix) {
			continue
		}

		row, err := storage.DecodeRow(k, v)
		if err != nil {
			return nil, err
		}

		result = append(result, row)
	}

	return result, nil
}

func (t *Tx) TableRows(table storage.Table) ([]storage.Row, error) {
	bucket := t.table(table)
	if bucket == nil {
		return nil, nil
	}

	var result []storage.Row
	err := bucket.ForEach(func(k, v []byte) error {
		row, err := storage.DecodeRow(k, v)
		if err != nil {
			return err
		}

		result = append(result, row)
		return nil
	})

	return result, err
}

func (t *Tx) Tables(prefix string) ([]storage.Table, error) {
	var result []storage.Table
	rows := t.tx.Bucket(rowsBucket)
	cursor := rows.Cursor()
	for k, v := cursor.Seek([]byte(prefix)); k != nil && bytes.HasPrefix(k, []byte(prefix)); k, v = cursor.Next() {
		if v != nil {
			continue
		}

		if first, _ := rows.Bucket(k).Cursor().First(); first != nil {
			result = append(result, storage.Table(k))
		}
	}

	slices.Sort(result)
	return result, nil
}

func (t *Tx) Insert(table storage.Table, row storage.Row) error {
	bucket, err := t.tx.Bucket(rowsBucket).CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return errors.Wrapf(err, "creating table %s", table)
	}

	return bucket.Put(storage.EncodeRowKey(row.Key, row.Interval), storage.EncodeRowValue(row.DatumID, row.Value))
}

func (t *Tx) Delete(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	if !t.tx.Writable() {
		return storage.ErrReadOnly
	}

	bucket := t.table(table)
	if bucket == nil {
		return nil
	}

	return bucket.Delete(storage.EncodeRowKey(key, interval))
}

func (t *Tx) DropTable(table storage.Table) error {
	if !t.tx.Writable() {
		return storage.ErrReadOnly
	}

	rows := t.tx.Bucket(rowsBucket)
	if rows.Bucket([]byte(table)) == nil {
		return nil
	}

	return rows.DeleteBucket([]byte(table))
}

func (t *Tx) SetSecondary(datumID int64, name, value string) error {
	return t.tx.Bucket(secondariesBucket).Put(storage.EncodeSecondaryKey(datumID, name), []byte(value))
}

func (t *Tx) Secondaries(datumID int64) (map[string]string, error) {
	result := make(map[string]string)
	prefix := storage.EncodeSecondaryPrefix(datumID)
	cursor := t.tx.Bucket(secondariesBucket).Cursor()
	for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
		result[storage.SecondaryName(k)] = string(v)
	}

	return result, nil
}

func (t *Tx) DeleteSecondaries(datumID int64) error {
	if !t.tx.Writable() {
		return storage.ErrReadOnly
	}

	bucket := t.tx.Bucket(secondariesBucket)
	prefix := storage.EncodeSecondaryPrefix(datumID)
	var keys [][]byte
	cursor := bucket.Cursor()
	for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Next() {
		keys = append(keys, slices.Clone(k))
	}

	for _, k := range keys {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tx) Property(name string) (string, bool, error) {
	value := t.tx.Bucket(propertiesBucket).Get([]byte(name))
	if value == nil {
		return "", false, nil
	}

	return string(value), true, nil
}

func (t *Tx) SetProperty(name, value string) error {
	return t.tx.Bucket(propertiesBucket).Put([]byte(name), []byte(value))
}

func (t *Tx) DeleteProperty(name string) error {
	if !t.tx.Writable() {
		return storage.ErrReadOnly
	}

	return t.tx.Bucket(propertiesBucket).Delete([]byte(name))
}

func (t *Tx) Properties(prefix string) (map[string]string, error) {
	result := make(map[string]string)
	cursor := t.tx.Bucket(propertiesBucket).Cursor()
	for k, v := cursor.Seek([]byte(prefix)); k != nil && bytes.HasPrefix(k, []byte(prefix)); k, v = cursor.Next() {
		result[string(k)] = string(v)
	}

	return result, nil
}
