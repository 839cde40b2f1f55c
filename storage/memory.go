package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

const memoryDegree = 32

// secondaryItem is a secondary value in memory
type secondaryItem struct {
	datumID int64
	name    string
	value   string
}

// propertyItem is a property value in memory
type propertyItem struct {
	name  string
	value string
}

func lessRows(a, b Row) bool {
	return CompareRows(a, b) < 0
}

func lessSecondaries(a, b secondaryItem) bool {
	if a.datumID != b.datumID {
		return a.datumID < b.datumID
	}

	return a.name < b.name
}

func lessProperties(a, b propertyItem) bool {
	return a.name < b.name
}

// memoryState is a full version of the data.
// Trees are cloned lazily, so that a state is never modified once committed.
type memoryState struct {
	tables      map[Table]*btree.BTreeG[Row]
	secondaries *btree.BTreeG[secondaryItem]
	properties  *btree.BTreeG[propertyItem]
}

func newMemoryState() *memoryState {
	return &memoryState{
		tables:      make(map[Table]*btree.BTreeG[Row]),
		secondaries: btree.NewG(memoryDegree, lessSecondaries),
		properties:  btree.NewG(memoryDegree, lessProperties),
	}
}

// clone returns a copy on write version of the state
func (s *memoryState) clone() *memoryState {
	result := &memoryState{
		tables:      make(map[Table]*btree.BTreeG[Row], len(s.tables)),
		secondaries: s.secondaries.Clone(),
		properties:  s.properties.Clone(),
	}

	for name, table := range s.tables {
		result.tables[name] = table.Clone()
	}

	return result
}

// MemoryStore keeps rows in memory.
// Writers are serialized, readers see the last committed state.
type MemoryStore struct {
	// writer serializes write transactions
	writer sync.Mutex
	// lock protects current and closed
	lock    sync.RWMutex
	current *memoryState
	closed  bool
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{current: newMemoryState()}
}

// snapshot returns the last committed state
func (m *MemoryStore) snapshot() (*memoryState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	return m.current, nil
}

// View runs fn over the last committed state
func (m *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state, err := m.snapshot()
	if err != nil {
		return err
	}

	return fn(&memoryTx{state: state})
}

// Update runs fn over a copy of the state, and commits it if fn succeeds
func (m *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.writer.Lock()
	defer m.writer.Unlock()

	m.lock.Lock()
	if m.closed {
		m.lock.Unlock()
		return ErrClosed
	}

	working := m.current.clone()
	m.lock.Unlock()

	if err := fn(&memoryTx{state: working, writable: true}); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.closed {
		return ErrClosed
	}

	m.current = working
	return nil
}

// Close releases data
func (m *MemoryStore) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.closed = true
	m.current = nil
	return nil
}

// memoryTx is a transaction over a state
type memoryTx struct {
	state    *memoryState
	writable bool
}

// table returns the tree of a table, creating it if create is true
func (t *memoryTx) table(name Table, create bool) *btree.BTreeG[Row] {
	tree := t.state.tables[name]
	if tree == nil && create {
		tree = btree.NewG(memoryDegree, lessRows)
		t.state.tables[name] = tree
	}

	return tree
}

// pivot returns a row to position into a table
func pivot(key []string, start, end lifetimes.Moment) Row {
	return Row{Key: key, Interval: lifetimes.MustTimeInterval(start, end)}
}

func (t *memoryTx) Rows(table Table, key []string, from, to lifetimes.Moment) ([]Row, error) {
	tree := t.table(table, false)
	if tree == nil || from > to {
		return nil, nil
	}

	var result []Row
	// last row starting before from, the only one that may end after from
	tree.DescendLessOrEqual(pivot(key, from, from), func(item Row) bool {
		if !slices.Equal(item.Key, key) {
			return false
		} else if item.Interval.Start() < from {
			result = append(result, item)
			return false
		}

		return true
	})

	tree.AscendGreaterOrEqual(pivot(key, from, from), func(item Row) bool {
		if !slices.Equal(item.Key, key) || item.Interval.Start() > to {
			return false
		}

		result = append(result, item)
		return true
	})

	return FilterOverlapping(result, from, to), nil
}

func (t *memoryTx) Floor(table Table, key []string, m lifetimes.Moment) (Row, bool, error) {
	var result Row
	var found bool
	tree := t.table(table, false)
	if tree == nil {
		return result, false, nil
	}

	tree.DescendLessOrEqual(pivot(key, m, lifetimes.MaxMoment), func(item Row) bool {
		if slices.Equal(item.Key, key) {
			result, found = item, true
		}

		return false
	})

	return result, found, nil
}

func (t *memoryTx) KeyRows(table Table, key []string) ([]Row, error) {
	tree := t.table(table, false)
	if tree == nil {
		return nil, nil
	}

	var result []Row
	tree.AscendGreaterOrEqual(pivot(key, lifetimes.MinMoment, lifetimes.MinMoment), func(item Row) bool {
		if !slices.Equal(item.Key, key) {
			return false
		}

		result = append(result, item)
		return true
	})

	return result, nil
}

func (t *memoryTx) TableRows(table Table) ([]Row, error) {
	tree := t.table(table, false)
	if tree == nil {
		return nil, nil
	}

	result := make([]Row, 0, tree.Len())
	tree.Ascend(func(item Row) bool {
		result = append(result, item)
		return true
	})

	return result, nil
}

func (t *memoryTx) Tables(prefix string) ([]Table, error) {
	var result []Table
	for name, tree := range t.state.tables {
		if tree.Len() != 0 && strings.HasPrefix(string(name), prefix) {
			result = append(result, name)
		}
	}

	slices.Sort(result)
	return result, nil
}

func (t *memoryTx) Insert(table Table, row Row) error {
	if !t.writable {
		return ErrReadOnly
	}

	row.Key = slices.Clone(row.Key)
	t.table(table, true).ReplaceOrInsert(row)
	return nil
}

func (t *memoryTx) Delete(table Table, key []string, interval lifetimes.TimeInterval) error {
	if !t.writable {
		return ErrReadOnly
	}

	if tree := t.table(table, false); tree != nil {
		tree.Delete(Row{Key: key, Interval: interval})
	}

	return nil
}

func (t *memoryTx) DropTable(table Table) error {
	if !t.writable {
		return ErrReadOnly
	}

	delete(t.state.tables, table)
	return nil
}

func (t *memoryTx) SetSecondary(datumID int64, name, value string) error {
	if !t.writable {
		return ErrReadOnly
	}

	t.state.secondaries.ReplaceOrInsert(secondaryItem{datumID: datumID, name: name, value: value})
	return nil
}

// datumSecondaries returns all the secondary items of a datum
func (t *memoryTx) datumSecondaries(datumID int64) []secondaryItem {
	var result []secondaryItem
	t.state.secondaries.AscendGreaterOrEqual(secondaryItem{datumID: datumID}, func(item secondaryItem) bool {
		if item.datumID != datumID {
			return false
		}

		result = append(result, item)
		return true
	})

	return result
}

func (t *memoryTx) Secondaries(datumID int64) (map[string]string, error) {
	result := make(map[string]string)
	for _, item := range t.datumSecondaries(datumID) {
		result[item.name] = item.value
	}

	return result, nil
}

func (t *memoryTx) DeleteSecondaries(datumID int64) error {
	if !t.writable {
		return ErrReadOnly
	}

	for _, item := range t.datumSecondaries(datumID) {
		t.state.secondaries.Delete(item)
	}

	return nil
}

func (t *memoryTx) Property(name string) (string, bool, error) {
	item, found := t.state.properties.Get(propertyItem{name: name})
	return item.value, found, nil
}

func (t *memoryTx) SetProperty(name, value string) error {
	if !t.writable {
		return ErrReadOnly
	}

	t.state.properties.ReplaceOrInsert(propertyItem{name: name, value: value})
	return nil
}

func (t *memoryTx) DeleteProperty(name string) error {
	if !t.writable {
		return ErrReadOnly
	}

	t.state.properties.Delete(propertyItem{name: name})
	return nil
}

func (t *memoryTx) Properties(prefix string) (map[string]string, error) {
	result := make(map[string]string)
	t.state.properties.AscendGreaterOrEqual(propertyItem{name: prefix}, func(item propertyItem) bool {
		if !strings.HasPrefix(item.name, prefix) {
			return false
		}

		result[item.name] = item.value
		return true
	})

	return result, nil
}
