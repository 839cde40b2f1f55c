package versioned

import (
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/storage"
)

// NEXT_DATUM_PROPERTY is the property holding the next datum id
const NEXT_DATUM_PROPERTY = "next_datum_id"

// DatumCounter mints datum ids, never twice the same
type DatumCounter interface {
	// NextDatumID returns a new id, within tx if counter is persisted
	NextDatumID(tx storage.Tx) (int64, error)
}

// PropertyCounter persists the next datum id as a property of the store.
// Ids are minted within the transaction, so a rollback does not lose the counter.
type PropertyCounter struct{}

// NextDatumID reads and increments the counter property
func (PropertyCounter) NextDatumID(tx storage.Tx) (int64, error) {
	next := int64(1)
	raw, found, err := tx.Property(NEXT_DATUM_PROPERTY)
	if err != nil {
		return 0, err
	} else if found {
		if next, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, errors.Wrapf(err, "corrupted datum counter %q", raw)
		}
	}

	if err := tx.SetProperty(NEXT_DATUM_PROPERTY, strconv.FormatInt(next+1, 10)); err != nil {
		return 0, err
	}

	return next, nil
}

// SequenceCounter is an in memory counter, for tests.
// Ids are not reused after a rollback.
type SequenceCounter struct {
	lock sync.Mutex
	next int64
}

// NewSequenceCounter returns a counter starting at first
func NewSequenceCounter(first int64) *SequenceCounter {
	return &SequenceCounter{next: first}
}

// NextDatumID returns the next value of the sequence
func (s *SequenceCounter) NextDatumID(storage.Tx) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	result := s.next
	s.next++
	return result, nil
}
