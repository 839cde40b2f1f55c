// Package postgres stores history rows in a postgresql database.
package postgres

import (
	"context"
	"embed"
	"path"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dao defines all database operations
type Dao struct {
	// pool to deal with multiple connections
	pool *pgxpool.Pool
}

// NewDao builds a new dao to connect a database via its url
func NewDao(ctx context.Context, url string) (Dao, error) {
	var dao Dao
	if pool, errPool := pgxpool.New(ctx, url); errPool != nil {
		return dao, errors.Wrap(errPool, "dao creation failed")
	} else {
		dao.pool = pool
	}

	return dao, nil
}

// Migrate runs all pending migrations.
// If logger is provided, logs migration progress; otherwise operates silently.
func (d Dao) Migrate(ctx context.Context, logger *zap.SugaredLogger) error {
	if d.pool == nil {
		return errors.New("nil value")
	}

	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	slices.Sort(files)
	for _, filename := range files {
		version := strings.Split(filename, "_")[0]
		content, err := migrations.ReadFile(path.Join("migrations", filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		applied, err := d.applyMigration(ctx, version, string(content))
		if err != nil {
			return errors.Wrapf(err, "execute %s", filename)
		}

		if logger != nil && applied {
			logger.Infow("Applied migration", "migration", filename, "version", version)
		} else if logger != nil {
			logger.Debugw("Skipping migration (already applied)", "migration", filename, "version", version)
		}
	}

	return nil
}

// applyMigration runs a migration if not already applied, and records it
func (d Dao) applyMigration(ctx context.Context, version, content string) (bool, error) {
	var applied bool
	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		// 000 creates the table of migrations
		if version != "000" {
			var exists bool
			row := tx.QueryRow(ctx, "select exists(select 1 from schema_migrations where version = $1)", version)
			if err := row.Scan(&exists); err != nil {
				return err
			} else if exists {
				return nil
			}
		}

		if _, err := tx.Exec(ctx, content); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, "insert into schema_migrations(version) values ($1) on conflict do nothing", version)
		applied = err == nil && tag.RowsAffected() == 1
		return err
	})

	return applied, err
}

// Reset deletes all data. Used by tests
func (d Dao) Reset(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, "truncate table history_rows, secondary_values, properties")
	return err
}

// View runs fn in a read only repeatable read transaction
func (d Dao) View(ctx context.Context, fn func(storage.Tx) error) error {
	return d.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, false, fn)
}

// Update runs fn in a serializable transaction.
// A transaction failing because of a concurrent one is run again from scratch
func (d Dao) Update(ctx context.Context, fn func(storage.Tx) error) error {
	options := pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
	return RetryOnSerializationFailure(SERIALIZATION_ATTEMPTS, func() error {
		return d.run(ctx, options, true, fn)
	})
}

// run executes fn in a transaction, committed if fn succeeds
func (d Dao) run(ctx context.Context, options pgx.TxOptions, writable bool, fn func(storage.Tx) error) error {
	if d.pool == nil {
		return storage.ErrClosed
	}

	tx, err := d.pool.BeginTx(ctx, options)
	if err != nil {
		return errors.Wrap(err, "cannot start transaction")
	}

	defer tx.Rollback(ctx)
	if err := fn(&Tx{ctx: ctx, tx: tx, writable: writable}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "cannot commit")
	}

	return nil
}

// Close closes the dao and the underlying pool
func (d Dao) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}

	return nil
}

// Tx is a postgresql transaction
type Tx struct {
	ctx      context.Context
	tx       pgx.Tx
	writable bool
}

const selectRows = "select element_key, start_time, end_time, value, datum_id from history_rows "

// collectRows reads history rows from query result
func collectRows(rows pgx.Rows) ([]storage.Row, error) {
	defer rows.Close()

	var result []storage.Row
	for rows.Next() {
		var key []string
		var start, end int64
		var value string
		var datumID int64
		if err := rows.Scan(&key, &start, &end, &value, &datumID); err != nil {
			return nil, err
		}

		interval, err := lifetimes.NewTimeInterval(lifetimes.Moment(start), lifetimes.Moment(end))
		if err != nil {
			return nil, err
		}

		if key == nil {
			key = []string{}
		}

		result = append(result, storage.Row{Key: key, Interval: interval, Value: value, DatumID: datumID})
	}

	return result, rows.Err()
}

// query runs a select on history rows
func (t *Tx) query(sql string, args ...any) ([]storage.Row, error) {
	rows, err := t.tx.Query(t.ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return collectRows(rows)
}

// exec runs a modification, refused for read only transactions
func (t *Tx) exec(sql string, args ...any) error {
	if !t.writable {
		return storage.ErrReadOnly
	}

	_, err := t.tx.Exec(t.ctx, sql, args...)
	return err
}

func (t *Tx) Rows(table storage.Table, key []string, from, to lifetimes.Moment) ([]storage.Row, error) {
	return t.query(selectRows+
		"where table_name = $1 and element_key = $2 and start_time <= $3 and end_time >= $4 "+
		"order by start_time, end_time", string(table), key, int64(to), int64(from))
}

func (t *Tx) Floor(table storage.Table, key []string, m lifetimes.Moment) (storage.Row, bool, error) {
	rows, err := t.query(selectRows+
		"where table_name = $1 and element_key = $2 and start_time <= $3 "+
		"order by start_time desc, end_time desc limit 1", string(table), key, int64(m))
	if err != nil || len(rows) == 0 {
		return storage.Row{}, false, err
	}

	return rows[0], true, nil
}

func (t *Tx) KeyRows(table storage.Table, key []string) ([]storage.Row, error) {
	return t.query(selectRows+
		"where table_name = $1 and element_key = $2 order by start_time, end_time", string(table), key)
}

func (t *Tx) TableRows(table storage.Table) ([]storage.Row, error) {
	return t.query(selectRows+
		"where table_name = $1 order by element_key, start_time, end_time", string(table))
}

func (t *Tx) Tables(prefix string) ([]storage.Table, error) {
	rows, err := t.tx.Query(t.ctx,
		"select distinct table_name from history_rows where left(table_name, length($1)) = $1 order by table_name", prefix)
	if err != nil {
		return nil, err
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	result := make([]storage.Table, 0, len(names))
	for _, name := range names {
		result = append(result, storage.Table(name))
	}

	return result, nil
}

func (t *Tx) Insert(table storage.Table, row storage.Row) error {
	key := row.Key
	if key == nil {
		key = []string{}
	}

	return t.exec("insert into history_rows(table_name, element_key, start_time, end_time, value, datum_id) "+
		"values ($1, $2, $3, $4, $5, $6) on conflict (table_name, element_key, start_time, end_time) "+
		"do update set value = excluded.value, datum_id = excluded.datum_id",
		string(table), key, int64(row.Interval.Start()), int64(row.Interval.End()), row.Value, row.DatumID)
}

func (t *Tx) Delete(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	if key == nil {
		key = []string{}
	}

	return t.exec("delete from history_rows where table_name = $1 and element_key = $2 and start_time = $3 and end_time = $4",
		string(table), key, int64(interval.Start()), int64(interval.End()))
}

func (t *Tx) DropTable(table storage.Table) error {
	return t.exec("delete from history_rows where table_name = $1", string(table))
}

func (t *Tx) SetSecondary(datumID int64, name, value string) error {
	return t.exec("insert into secondary_values(datum_id, name, value) values ($1, $2, $3) "+
		"on conflict (datum_id, name) do update set value = excluded.value", datumID, name, value)
}

// pairs reads (name, value) rows
func (t *Tx) pairs(sql string, args ...any) (map[string]string, error) {
	rows, err := t.tx.Query(t.ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}

		result[name] = value
	}

	return result, rows.Err()
}

func (t *Tx) Secondaries(datumID int64) (map[string]string, error) {
	return t.pairs("select name, value from secondary_values where datum_id = $1", datumID)
}

func (t *Tx) DeleteSecondaries(datumID int64) error {
	return t.exec("delete from secondary_values where datum_id = $1", datumID)
}

func (t *Tx) Property(name string) (string, bool, error) {
	values, err := t.pairs("select name, value from properties where name = $1", name)
	if err != nil {
		return "", false, err
	}

	value, found := values[name]
	return value, found, nil
}

func (t *Tx) SetProperty(name, value string) error {
	return t.exec("insert into properties(name, value) values ($1, $2) "+
		"on conflict (name) do update set value = excluded.value", name, value)
}

func (t *Tx) DeleteProperty(name string) error {
	return t.exec("delete from properties where name = $1", name)
}

func (t *Tx) Properties(prefix string) (map[string]string, error) {
	return t.pairs("select name, value from properties where left(name, length($1)) = $1", prefix)
}
