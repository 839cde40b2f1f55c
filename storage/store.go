package storage

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// Table is the name of a set of history rows.
// There is a lifetime table per domain, and a table per attribute.
type Table string

const (
	// LIFETIME_PREFIX starts names of lifetime tables
	LIFETIME_PREFIX = "lifetime/"
	// ATTRIBUTE_PREFIX starts names of attribute tables
	ATTRIBUTE_PREFIX = "attribute/"
)

// LifetimeTable returns the table of lifetimes of elements of domain
func LifetimeTable(domain elements.Domain) Table {
	return Table(LIFETIME_PREFIX + domain.String())
}

// AttributeTable returns the table of values of an attribute
func AttributeTable(domain elements.Domain, attribute string) Table {
	return Table(AttributeTablePrefix(domain) + attribute)
}

// AttributeTablePrefix is the prefix of all attribute tables of domain
func AttributeTablePrefix(domain elements.Domain) string {
	return ATTRIBUTE_PREFIX + domain.String() + "/"
}

// AttributeOf returns the attribute name of an attribute table of domain
func AttributeOf(table Table, domain elements.Domain) (string, bool) {
	return strings.CutPrefix(string(table), AttributeTablePrefix(domain))
}

// Row is a stored fact: value during interval for the element with key Key
type Row struct {
	// Key is the selection key of the element
	Key []string
	// Interval is the period of the fact
	Interval lifetimes.TimeInterval
	// Value is empty for lifetime rows
	Value string
	// DatumID identifies the fact to attach secondary values to
	DatumID int64
}

// CompareRows orders rows per key, then per interval
func CompareRows(a, b Row) int {
	if result := slices.Compare(a.Key, b.Key); result != 0 {
		return result
	}

	return a.Interval.Compare(b.Interval)
}

// Tx is a transaction on the row store.
// Row operations assume rows of a given key are in normal form, that is intervals do not overlap.
// All slices are sorted with CompareRows.
type Tx interface {
	// Rows returns the rows of key with start <= to and end >= from
	Rows(table Table, key []string, from, to lifetimes.Moment) ([]Row, error)
	// Floor returns the row of key with the greatest interval lower or equal to [m, +oo[
	Floor(table Table, key []string, m lifetimes.Moment) (Row, bool, error)
	// KeyRows returns all the rows of key
	KeyRows(table Table, key []string) ([]Row, error)
	// TableRows returns all the rows of a table
	TableRows(table Table) ([]Row, error)
	// Tables returns the sorted names of non empty tables starting with prefix
	Tables(prefix string) ([]Table, error)
	// Insert adds or replaces a row
	Insert(table Table, row Row) error
	// Delete removes the row of key and interval, if any
	Delete(table Table, key []string, interval lifetimes.TimeInterval) error
	// DropTable removes all rows of a table
	DropTable(table Table) error

	// SetSecondary sets a secondary value for a datum
	SetSecondary(datumID int64, name, value string) error
	// Secondaries returns the secondary values of a datum
	Secondaries(datumID int64) (map[string]string, error)
	// DeleteSecondaries removes all the secondary values of a datum
	DeleteSecondaries(datumID int64) error

	// Property returns a global property, false if not set
	Property(name string) (string, bool, error)
	// SetProperty sets a global property
	SetProperty(name, value string) error
	// DeleteProperty removes a global property
	DeleteProperty(name string) error
	// Properties returns properties whose name starts with prefix
	Properties(prefix string) (map[string]string, error)
}

// Store is a transactional row store.
// Update runs fn in a write transaction, committed if fn returns nil, rolled back otherwise.
// View runs fn in a read only consistent snapshot.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// ErrReadOnly is raised when modifying data within a View
var ErrReadOnly = errors.New("read only transaction")

// ErrClosed is raised when using a closed store
var ErrClosed = errors.New("closed store")

// FilterOverlapping keeps rows with start <= to and end >= from
func FilterOverlapping(rows []Row, from, to lifetimes.Moment) []Row {
	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Interval.Start() <= to && row.Interval.End() >= from {
			result = append(result, row)
		}
	}

	return result
}

// DomainOf returns the domain of a lifetime or attribute table
func DomainOf(table Table) (elements.Domain, bool) {
	for _, domain := range elements.AllDomains() {
		if table == LifetimeTable(domain) || strings.HasPrefix(string(table), AttributeTablePrefix(domain)) {
			return domain, true
		}
	}

	return 0, false
}
