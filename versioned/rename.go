package versioned

import (
	"slices"

	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/storage"
)

// renamedKey returns key of a row of domain with alter oldName renamed, false if key does not mention it
func renamedKey(domain elements.Domain, key []string, oldName, newName string) ([]string, bool) {
	result := slices.Clone(key)
	changed := false
	for index, part := range key {
		// second part of ego alter keys is the direction
		if domain == elements.EGO_ALTER && index > 0 {
			break
		} else if part == oldName {
			result[index] = newName
			changed = true
		}
	}

	return result, changed
}

// RenameAlter renames an alter in all its lifetimes and values, datum ids are kept.
// It is rejected if newName is already used
func (s *Session) RenameAlter(oldName, newName string) error {
	const operation = "rename_alter"
	for _, name := range []string{oldName, newName} {
		if err := elements.ValidateName(name); err != nil {
			return s.reject(kindOfElementError(err), operation, "invalid name %q", name)
		}
	}

	if oldName == newName {
		return nil
	}

	if rows, err := s.tx.KeyRows(storage.LifetimeTable(elements.ALTER), []string{oldName}); err != nil {
		return err
	} else if len(rows) == 0 {
		return s.reject(UnknownElement, operation, "no alter %s", oldName)
	}

	tables, err := s.tx.Tables("")
	if err != nil {
		return err
	}

	type move struct {
		table storage.Table
		row   storage.Row
		key   []string
	}

	var moves []move
	for _, table := range tables {
		domain, found := storage.DomainOf(table)
		if !found || domain == elements.EGO {
			continue
		}

		rows, err := s.tx.TableRows(table)
		if err != nil {
			return err
		}

		for _, row := range rows {
			if _, used := renamedKey(domain, row.Key, newName, newName); used {
				return s.reject(DuplicateName, operation, "alter %s already exists", newName)
			} else if key, changed := renamedKey(domain, row.Key, oldName, newName); changed {
				moves = append(moves, move{table: table, row: row, key: key})
			}
		}
	}

	for _, current := range moves {
		if err := s.tx.Delete(current.table, current.row.Key, current.row.Interval); err != nil {
			return err
		}
	}

	for _, current := range moves {
		row := current.row
		row.Key = current.key
		if err := s.tx.Insert(current.table, row); err != nil {
			return err
		}
	}

	s.applied(operation)
	return nil
}
