package versioned

import (
	"slices"

	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/storage"
)

// lifetimeLocation returns where the lifetime of element is stored.
// Ego has no stored lifetime, ego alter dyads use the lifetime of their alter
func lifetimeLocation(element elements.Element) (storage.Table, []string, bool) {
	switch e := element.(type) {
	case elements.Alter:
		return storage.LifetimeTable(elements.ALTER), e.SelectionKey(), true
	case elements.EgoAlterDyad:
		return storage.LifetimeTable(elements.ALTER), e.AlterOf().SelectionKey(), true
	case elements.AlterAlterDyad:
		return storage.LifetimeTable(elements.ALTER_ALTER), e.SelectionKey(), true
	default:
		return "", nil, false
	}
}

// checkElement returns a rejection for an invalid element
func (s *Session) checkElement(operation string, element elements.Element) error {
	if err := elements.Validate(element); err != nil {
		return s.reject(kindOfElementError(err), operation, "invalid element: %s", err.Error())
	}

	return nil
}

// extendLifetime makes element exist during interval, and alters it depends on
func (s *Session) extendLifetime(element elements.Element, interval lifetimes.TimeInterval) error {
	if dyad, ok := element.(elements.AlterAlterDyad); ok {
		source, target := dyad.Endpoints()
		for _, alter := range []elements.Alter{source, target} {
			if err := s.unionWithLifetime(storage.LifetimeTable(elements.ALTER), alter.SelectionKey(), interval); err != nil {
				return err
			}
		}
	}

	if table, key, stored := lifetimeLocation(element); stored {
		return s.unionWithLifetime(table, key, interval)
	}

	return nil
}

// AddElement makes element exist during interval.
// Ego always exists. Adding an ego alter dyad adds its alter.
// Adding an alter alter dyad also adds both alters
func (s *Session) AddElement(element elements.Element, interval lifetimes.TimeInterval) error {
	const operation = "add_element"
	if err := s.checkElement(operation, element); err != nil {
		return err
	}

	if err := s.extendLifetime(element, interval); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}

// RemoveElement makes element not exist during interval.
// Removing an alter removes its dyads and all their values during interval.
// Removing an alter alter dyad removes its values during interval.
// Ego always exists, and ego alter dyads exist as long as their alter.
// A time point only removes an equal stored time point
func (s *Session) RemoveElement(element elements.Element, interval lifetimes.TimeInterval) error {
	const operation = "remove_element"
	if err := s.checkElement(operation, element); err != nil {
		return err
	}

	switch e := element.(type) {
	case elements.Ego:
		return s.reject(WrongDomain, operation, "ego always exists")
	case elements.EgoAlterDyad:
		return s.reject(WrongDomain, operation, "%s exists as long as %s, remove the alter instead", e, e.Alter)
	case elements.Alter:
		if err := s.removeAlter(e, interval); err != nil {
			return err
		}
	case elements.AlterAlterDyad:
		if err := s.removeAlterAlterDyad(e, interval); err != nil {
			return err
		}
	}

	s.applied(operation)
	return nil
}

// removeAlter removes the alter, its dyads and their values during interval
func (s *Session) removeAlter(alter elements.Alter, interval lifetimes.TimeInterval) error {
	if err := s.cutOutOfLifetime(storage.LifetimeTable(elements.ALTER), alter.SelectionKey(), interval); err != nil {
		return err
	}

	dyads, err := s.incidentDyads(storage.LifetimeTable(elements.ALTER_ALTER), alter.Name)
	if err != nil {
		return err
	}

	for _, dyad := range dyads {
		if err := s.cutOutOfLifetime(storage.LifetimeTable(elements.ALTER_ALTER), dyad.SelectionKey(), interval); err != nil {
			return err
		}
	}

	if err := s.unassignAll(elements.ALTER, interval, func([]string) bool { return true }, alter.SelectionKey()); err != nil {
		return err
	}

	out := elements.EgoAlterDyad{Alter: alter.Name, Direction: elements.OUT}
	in := elements.EgoAlterDyad{Alter: alter.Name, Direction: elements.IN}
	if err := s.unassignAll(elements.EGO_ALTER, interval, func([]string) bool { return true }, out.SelectionKey(), in.SelectionKey()); err != nil {
		return err
	}

	return s.unassignAll(elements.ALTER_ALTER, interval, func(key []string) bool { return dyadMentions(key, alter.Name) })
}

// removeAlterAlterDyad removes the dyad and its values during interval
func (s *Session) removeAlterAlterDyad(dyad elements.AlterAlterDyad, interval lifetimes.TimeInterval) error {
	if err := s.cutOutOfLifetime(storage.LifetimeTable(elements.ALTER_ALTER), dyad.SelectionKey(), interval); err != nil {
		return err
	}

	return s.unassignAll(elements.ALTER_ALTER, interval, func([]string) bool { return true }, dyad.SelectionKey())
}

// unassignAll removes values during interval in all attribute tables of domain.
// Keys are the given ones, or all the keys of each table matching filter if none is given
func (s *Session) unassignAll(domain elements.Domain, interval lifetimes.TimeInterval, filter func([]string) bool, keys ...[]string) error {
	tables, err := s.tx.Tables(storage.AttributeTablePrefix(domain))
	if err != nil {
		return err
	}

	for _, table := range tables {
		targets := keys
		if len(targets) == 0 {
			if targets, err = s.tableKeys(table, filter); err != nil {
				return err
			}
		}

		for _, key := range targets {
			if err := s.unassign(table, key, interval); err != nil {
				return err
			}
		}
	}

	return nil
}

// tableKeys returns distinct keys of a table matching filter
func (s *Session) tableKeys(table storage.Table, filter func([]string) bool) ([][]string, error) {
	rows, err := s.tx.TableRows(table)
	if err != nil {
		return nil, err
	}

	var result [][]string
	for _, row := range rows {
		if len(result) != 0 && slices.Equal(result[len(result)-1], row.Key) {
			continue
		} else if filter(row.Key) {
			result = append(result, row.Key)
		}
	}

	return result, nil
}

// dyadMentions returns true if key is the key of an alter alter dyad with name as source or target
func dyadMentions(key []string, name string) bool {
	return len(key) == 2 && elements.AlterAlterDyad{Source: key[0], Target: key[1]}.Mentions(name)
}

// incidentDyads returns alter alter dyads with a row in table that have name as source or target
func (s *Session) incidentDyads(table storage.Table, name string) ([]elements.AlterAlterDyad, error) {
	keys, err := s.tableKeys(table, func(key []string) bool { return dyadMentions(key, name) })
	if err != nil {
		return nil, err
	}

	result := make([]elements.AlterAlterDyad, 0, len(keys))
	for _, key := range keys {
		result = append(result, elements.AlterAlterDyad{Source: key[0], Target: key[1]})
	}

	return result, nil
}

// GetLifetime returns the lifetime of element. Ego always exists
func (s *Session) GetLifetime(element elements.Element) (*lifetimes.Lifetime, error) {
	if err := s.checkElement("get_lifetime", element); err != nil {
		return nil, err
	}

	table, key, stored := lifetimeLocation(element)
	if !stored {
		return lifetimes.NewLifetime(lifetimes.Always()), nil
	}

	return s.lifetimeOf(table, key)
}

// GetAllEntitiesAt returns ego, and the alters and dyads existing at least once during interval, sorted
func (s *Session) GetAllEntitiesAt(interval lifetimes.TimeInterval) ([]elements.Element, error) {
	result := []elements.Element{elements.Ego{}}
	for _, domain := range []elements.Domain{elements.ALTER, elements.ALTER_ALTER} {
		rows, err := s.tx.TableRows(storage.LifetimeTable(domain))
		if err != nil {
			return nil, err
		}

		var last elements.Element
		for _, row := range rows {
			if !row.Interval.Overlaps(interval) {
				continue
			}

			element, err := elements.FromSelectionKey(domain, row.Key)
			if err != nil {
				return nil, err
			} else if element == last {
				continue
			}

			last = element
			result = append(result, element)
			if alter, ok := element.(elements.Alter); ok {
				result = append(result,
					elements.EgoAlterDyad{Alter: alter.Name, Direction: elements.OUT},
					elements.EgoAlterDyad{Alter: alter.Name, Direction: elements.IN},
				)
			}
		}
	}

	slices.SortFunc(result, elements.Compare)
	return result, nil
}

// ExistsAt returns true if element exists at m
func (s *Session) ExistsAt(element elements.Element, m lifetimes.Moment) (bool, error) {
	table, key, stored := lifetimeLocation(element)
	if !stored {
		return true, nil
	}

	_, found, err := s.pointLookup(table, key, m)
	return found, err
}
