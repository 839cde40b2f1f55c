package versioned

import (
	"maps"
	"strconv"

	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
)

const (
	// START_SET_AT is the secondary value with the wall clock the start of a fact was recorded at
	START_SET_AT = "start_set_at"
	// END_SET_AT is the secondary value with the wall clock the end of a fact was recorded at
	END_SET_AT = "end_set_at"
)

// IsReservedSecondary returns true for secondary values maintained by the store
func IsReservedSecondary(name string) bool {
	return name == START_SET_AT || name == END_SET_AT
}

// timedValues returns the interval and value of rows
func timedValues(rows []storage.Row) []lifetimes.TimedValue {
	result := make([]lifetimes.TimedValue, 0, len(rows))
	for _, row := range rows {
		result = append(result, lifetimes.TimedValue{Interval: row.Interval, Value: row.Value})
	}

	return result
}

// candidateRows returns the rows of key that overlap or touch interval
func (s *Session) candidateRows(table storage.Table, key []string, interval lifetimes.TimeInterval) ([]storage.Row, error) {
	return s.tx.Rows(table, key, interval.Start(), interval.End())
}

// plannedChange is a change to apply on rows of a key
type plannedChange struct {
	table  storage.Table
	key    []string
	stored []storage.Row
	change lifetimes.Change
}

// apply persists a change planned over stored rows of key.
// Each inserted fragment gets a new datum id.
// Bound timestamps come from the row the bound comes from, or now for new bounds.
// Other secondary values of all source rows are copied to the fragment.
// Then, removed rows lose their secondary values.
func (s *Session) apply(planned plannedChange) error {
	if planned.change.IsEmpty() {
		return nil
	}

	// read secondary values before deleting anything
	secondaries := make(map[int]map[string]string)
	for _, fragment := range planned.change.Inserted {
		for _, index := range fragment.Sources {
			if _, found := secondaries[index]; found {
				continue
			}

			values, err := s.tx.Secondaries(planned.stored[index].DatumID)
			if err != nil {
				return err
			}

			secondaries[index] = values
		}
	}

	for _, index := range planned.change.Removed {
		if err := s.tx.Delete(planned.table, planned.key, planned.stored[index].Interval); err != nil {
			return err
		}
	}

	now := strconv.FormatInt(int64(s.now), 10)
	for _, fragment := range planned.change.Inserted {
		datumID, err := s.store.counter.NextDatumID(s.tx)
		if err != nil {
			return err
		}

		row := storage.Row{Key: planned.key, Interval: fragment.Interval, Value: fragment.Value, DatumID: datumID}
		if err := s.tx.Insert(planned.table, row); err != nil {
			return err
		}

		rowsWrittenTotal.Inc()

		values := make(map[string]string)
		for _, index := range fragment.Sources {
			maps.Copy(values, secondaries[index])
		}

		values[START_SET_AT] = now
		if fragment.StartFrom >= 0 {
			if previous, found := secondaries[fragment.StartFrom][START_SET_AT]; found {
				values[START_SET_AT] = previous
			}
		}

		values[END_SET_AT] = now
		if fragment.EndFrom >= 0 {
			if previous, found := secondaries[fragment.EndFrom][END_SET_AT]; found {
				values[END_SET_AT] = previous
			}
		}

		for name, value := range values {
			if err := s.tx.SetSecondary(datumID, name, value); err != nil {
				return err
			}
		}
	}

	for _, index := range planned.change.Removed {
		if err := s.tx.DeleteSecondaries(planned.stored[index].DatumID); err != nil {
			return err
		}
	}

	return nil
}

// unionWithLifetime adds interval to the lifetime of key in table
func (s *Session) unionWithLifetime(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	stored, err := s.candidateRows(table, key, interval)
	if err != nil {
		return err
	}

	change := lifetimes.PlanUnion(timedValues(stored), interval)
	return s.apply(plannedChange{table: table, key: key, stored: stored, change: change})
}

// cutOutOfLifetime removes interval from the lifetime of key in table.
// A time point only removes an equal stored point
func (s *Session) cutOutOfLifetime(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	stored, err := s.candidateRows(table, key, interval)
	if err != nil {
		return err
	}

	change := lifetimes.PlanCutOut(timedValues(stored), interval)
	return s.apply(plannedChange{table: table, key: key, stored: stored, change: change})
}

// planSetValue plans to set value during interval for key in table.
// It returns false when interval is a point within a stored interval, its start included, with another value
func (s *Session) planSetValue(table storage.Table, key []string, interval lifetimes.TimeInterval, value string) (plannedChange, bool, error) {
	stored, err := s.candidateRows(table, key, interval)
	if err != nil {
		return plannedChange{}, false, err
	}

	change, accepted := lifetimes.PlanSetValue(timedValues(stored), interval, value)
	return plannedChange{table: table, key: key, stored: stored, change: change}, accepted, nil
}

// unassign removes values of key during interval, if possible
func (s *Session) unassign(table storage.Table, key []string, interval lifetimes.TimeInterval) error {
	planned, accepted, err := s.planSetValue(table, key, interval, lifetimes.UNASSIGNED_VALUE)
	if err != nil || !accepted {
		return err
	}

	return s.apply(planned)
}

// pointLookup returns the row of key containing m, if any
func (s *Session) pointLookup(table storage.Table, key []string, m lifetimes.Moment) (storage.Row, bool, error) {
	row, found, err := s.tx.Floor(table, key, m)
	if err != nil || !found || !row.Interval.ContainsMoment(m) {
		return storage.Row{}, false, err
	}

	return row, true, nil
}

// lifetimeOf returns the lifetime stored for key in table
func (s *Session) lifetimeOf(table storage.Table, key []string) (*lifetimes.Lifetime, error) {
	rows, err := s.tx.KeyRows(table, key)
	if err != nil {
		return nil, err
	}

	result := lifetimes.NewLifetime()
	for _, row := range rows {
		result.Union(row.Interval)
	}

	return result, nil
}
