package versioned

import (
	"slices"

	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/storage"
)

// ElementValue is the value of an attribute for an element
type ElementValue struct {
	Element elements.Element
	Value   string
	DatumID int64
}

// checkDomain rejects unknown domains
func (s *Session) checkDomain(operation string, domain elements.Domain) error {
	if !slices.Contains(elements.AllDomains(), domain) {
		return s.reject(UnknownDomain, operation, "unknown domain %d", domain)
	}

	return nil
}

// hasRows returns true if there is at least one row in table
func (s *Session) hasRows(table storage.Table) (bool, error) {
	tables, err := s.tx.Tables(string(table))
	if err != nil {
		return false, err
	}

	return slices.Contains(tables, table), nil
}

// findAttribute returns the declaration of name for domain, or a rejection.
// Rejection is WrongDomain if name is declared for another domain, UnknownAttribute otherwise
func (s *Session) findAttribute(operation string, domain elements.Domain, name string) (schema.Attribute, error) {
	attribute, found, err := s.catalog.Find(domain, name)
	if err != nil {
		return attribute, err
	} else if found {
		return attribute, nil
	}

	for _, other := range elements.AllDomains() {
		if other == domain {
			continue
		} else if _, found, err := s.catalog.Find(other, name); err != nil {
			return attribute, err
		} else if found {
			return attribute, s.reject(WrongDomain, operation, "%s is an attribute of %s, not %s", name, other, domain)
		}
	}

	return attribute, s.reject(UnknownAttribute, operation, "no attribute %s for %s", name, domain)
}

// DeclareAttribute declares an attribute, or updates its description and choices.
// Changing value type or direction is accepted only if there is no value yet
func (s *Session) DeclareAttribute(declaration schema.Attribute) error {
	const operation = "declare_attribute"
	if err := declaration.Validate(); err != nil {
		return s.reject(kindOfSchemaError(err), operation, "invalid declaration of %s: %s", declaration.Name, err.Error())
	}

	declaration = declaration.Normalize()
	existing, found, err := s.catalog.Find(declaration.Domain, declaration.Name)
	if err != nil {
		return err
	}

	if found && existing.IsCompatibleChange(declaration) {
		for _, choice := range existing.Choices {
			declaration.AddChoice(choice)
		}

		if declaration.Description == "" {
			declaration.Description = existing.Description
		}
	} else if found {
		if used, err := s.hasRows(storage.AttributeTable(declaration.Domain, declaration.Name)); err != nil {
			return err
		} else if used {
			return s.reject(IncompatibleTypeChange, operation,
				"%s has values as %s %s, cannot become %s %s",
				declaration.Name, existing.ValueType, existing.Direction, declaration.ValueType, declaration.Direction)
		}
	}

	if err := s.catalog.Save(declaration); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}

// GetAttribute returns the declaration of an attribute, false if not declared
func (s *Session) GetAttribute(domain elements.Domain, name string) (schema.Attribute, bool, error) {
	return s.catalog.Find(domain, name)
}

// ListAttributes returns the declarations of a domain sorted by name
func (s *Session) ListAttributes(domain elements.Domain) ([]schema.Attribute, error) {
	if err := s.checkDomain("list_attributes", domain); err != nil {
		return nil, err
	}

	return s.catalog.List(domain)
}

// GetAllAttributeNames returns the sorted names of attributes of domain
func (s *Session) GetAllAttributeNames(domain elements.Domain) ([]string, error) {
	if err := s.checkDomain("get_attribute_names", domain); err != nil {
		return nil, err
	}

	return s.catalog.Names(domain)
}

// AddChoice adds an accepted value to a FINITE_CHOICE attribute
func (s *Session) AddChoice(domain elements.Domain, name, choice string) error {
	const operation = "add_choice"
	attribute, err := s.findAttribute(operation, domain, name)
	if err != nil {
		return err
	} else if attribute.ValueType != schema.FINITE_CHOICE {
		return s.reject(IncompatibleValue, operation, "%s is %s, not %s", name, attribute.ValueType, schema.FINITE_CHOICE)
	} else if lifetimes.IsUnassigned(choice) {
		return s.reject(IncompatibleValue, operation, "%q is not a valid choice", choice)
	}

	if !attribute.AddChoice(choice) {
		return nil
	} else if err := s.catalog.Save(attribute); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}

// RemoveAttribute removes the declaration and all the values of an attribute
func (s *Session) RemoveAttribute(domain elements.Domain, name string) error {
	const operation = "remove_attribute"
	if _, err := s.findAttribute(operation, domain, name); err != nil {
		return err
	}

	table := storage.AttributeTable(domain, name)
	rows, err := s.tx.TableRows(table)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := s.tx.DeleteSecondaries(row.DatumID); err != nil {
			return err
		}
	}

	if err := s.tx.DropTable(table); err != nil {
		return err
	} else if err := s.catalog.Delete(domain, name); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}

// RenameAttribute renames an attribute, values and datum ids are kept
func (s *Session) RenameAttribute(domain elements.Domain, oldName, newName string) error {
	const operation = "rename_attribute"
	attribute, err := s.findAttribute(operation, domain, oldName)
	if err != nil {
		return err
	}

	if err := schema.ValidateAttributeName(newName); err != nil {
		return s.reject(kindOfSchemaError(err), operation, "invalid name %q", newName)
	} else if oldName == newName {
		return nil
	} else if _, found, err := s.catalog.Find(domain, newName); err != nil {
		return err
	} else if found {
		return s.reject(DuplicateName, operation, "%s already declared for %s", newName, domain)
	}

	if err := s.moveTable(storage.AttributeTable(domain, oldName), storage.AttributeTable(domain, newName)); err != nil {
		return err
	}

	attribute.Name = newName
	if err := s.catalog.Save(attribute); err != nil {
		return err
	} else if err := s.catalog.Delete(domain, oldName); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}

// moveTable moves all rows of source to destination
func (s *Session) moveTable(source, destination storage.Table) error {
	rows, err := s.tx.TableRows(source)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := s.tx.Insert(destination, row); err != nil {
			return err
		}
	}

	return s.tx.DropTable(source)
}

// mirrors returns element, and its reverse when values of attribute are mirrored
func mirrors(attribute schema.Attribute, element elements.Element) []elements.Element {
	result := []elements.Element{element}
	if attribute.IsSymmetric() {
		if reverse := element.Reverse(); reverse != element {
			result = append(result, reverse)
		}
	}

	return result
}

// SetAttributeValueAt sets value during interval for the attribute name of element.
// The element then exists during interval.
// Unknown choices of FINITE_CHOICE attributes are added.
// An unassigned value removes values during interval.
// Symmetric attributes of dyads also set value for the reverse dyad.
func (s *Session) SetAttributeValueAt(interval lifetimes.TimeInterval, name string, element elements.Element, value string) error {
	const operation = "set_value"
	if err := s.checkElement(operation, element); err != nil {
		return err
	}

	attribute, err := s.findAttribute(operation, element.Domain(), name)
	if err != nil {
		return err
	} else if !attribute.AcceptsElement(element) {
		return s.reject(InvalidDirection, operation, "%s is %s, not valid for %s", name, attribute.Direction, element)
	}

	value, err = attribute.NormalizeValue(value)
	if err != nil {
		return s.reject(IncompatibleValue, operation, "%s: %s", name, err.Error())
	}

	table := storage.AttributeTable(attribute.Domain, attribute.Name)
	targets := mirrors(attribute, element)
	plans := make([]plannedChange, 0, len(targets))
	for _, target := range targets {
		planned, accepted, err := s.planSetValue(table, target.SelectionKey(), interval, value)
		if err != nil {
			return err
		} else if !accepted {
			return s.reject(InvalidInterval, operation, "%s is inside a value interval of %s for %s", interval, name, target)
		}

		plans = append(plans, planned)
	}

	unassigned := lifetimes.IsUnassigned(value)
	if !unassigned {
		for _, target := range targets {
			if err := s.extendLifetime(target, interval); err != nil {
				return err
			}
		}
	}

	if !unassigned && attribute.ValueType == schema.FINITE_CHOICE && attribute.AddChoice(value) {
		if err := s.catalog.Save(attribute); err != nil {
			return err
		}
	}

	for _, planned := range plans {
		if err := s.apply(planned); err != nil {
			return err
		}
	}

	s.applied(operation)
	return nil
}

// valueRow returns the row of attribute name for element at m
func (s *Session) valueRow(operation string, m lifetimes.Moment, name string, element elements.Element) (storage.Row, bool, error) {
	if err := s.checkElement(operation, element); err != nil {
		return storage.Row{}, false, err
	} else if _, err := s.findAttribute(operation, element.Domain(), name); err != nil {
		return storage.Row{}, false, err
	}

	return s.pointLookup(storage.AttributeTable(element.Domain(), name), element.SelectionKey(), m)
}

// GetValueAt returns the value of attribute name for element at m, false if none
func (s *Session) GetValueAt(m lifetimes.Moment, name string, element elements.Element) (string, bool, error) {
	row, found, err := s.valueRow("get_value", m, name, element)
	return row.Value, found, err
}

// GetDatumIDAt returns the datum id of the value of attribute name for element at m, false if none
func (s *Session) GetDatumIDAt(m lifetimes.Moment, name string, element elements.Element) (int64, bool, error) {
	row, found, err := s.valueRow("get_datum_id", m, name, element)
	return row.DatumID, found, err
}

// GetUniqueValuesInInterval returns the sorted distinct values of attribute name for element during interval
func (s *Session) GetUniqueValuesInInterval(interval lifetimes.TimeInterval, name string, element elements.Element) ([]string, error) {
	const operation = "get_unique_values"
	if err := s.checkElement(operation, element); err != nil {
		return nil, err
	} else if _, err := s.findAttribute(operation, element.Domain(), name); err != nil {
		return nil, err
	}

	rows, err := s.candidateRows(storage.AttributeTable(element.Domain(), name), element.SelectionKey(), interval)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, row := range rows {
		if row.Interval.Overlaps(interval) {
			result = append(result, row.Value)
		}
	}

	slices.Sort(result)
	return slices.Compact(result), nil
}

// historyOf reads the history of key in table
func (s *Session) historyOf(table storage.Table, key []string) (*lifetimes.TimeVaryingValue, error) {
	rows, err := s.tx.KeyRows(table, key)
	if err != nil {
		return nil, err
	}

	result := lifetimes.NewTimeVaryingValue()
	for _, row := range rows {
		result.SetValueAt(row.Interval, row.Value)
	}

	return result, nil
}

// GetAllValuesOverTime returns the full history of attribute name for element
func (s *Session) GetAllValuesOverTime(name string, element elements.Element) (*lifetimes.TimeVaryingValue, error) {
	const operation = "get_history"
	if err := s.checkElement(operation, element); err != nil {
		return nil, err
	} else if _, err := s.findAttribute(operation, element.Domain(), name); err != nil {
		return nil, err
	}

	return s.historyOf(storage.AttributeTable(element.Domain(), name), element.SelectionKey())
}

// GetValuesOfAttributeAcrossAllElementsAt returns values at m of attribute name for all elements of domain, sorted by element
func (s *Session) GetValuesOfAttributeAcrossAllElementsAt(m lifetimes.Moment, domain elements.Domain, name string) ([]ElementValue, error) {
	const operation = "get_all_values"
	if err := s.checkDomain(operation, domain); err != nil {
		return nil, err
	} else if _, err := s.findAttribute(operation, domain, name); err != nil {
		return nil, err
	}

	rows, err := s.tx.TableRows(storage.AttributeTable(domain, name))
	if err != nil {
		return nil, err
	}

	var result []ElementValue
	for _, row := range rows {
		if !row.Interval.ContainsMoment(m) {
			continue
		}

		element, err := elements.FromSelectionKey(domain, row.Key)
		if err != nil {
			return nil, err
		}

		result = append(result, ElementValue{Element: element, Value: row.Value, DatumID: row.DatumID})
	}

	slices.SortFunc(result, func(a, b ElementValue) int {
		return elements.Compare(a.Element, b.Element)
	})

	return result, nil
}

// GetAllAttributesForElement returns the history of each attribute with a value for element, per attribute name
func (s *Session) GetAllAttributesForElement(element elements.Element) (map[string]*lifetimes.TimeVaryingValue, error) {
	if err := s.checkElement("get_all_attributes", element); err != nil {
		return nil, err
	}

	names, err := s.catalog.Names(element.Domain())
	if err != nil {
		return nil, err
	}

	result := make(map[string]*lifetimes.TimeVaryingValue)
	for _, name := range names {
		history, err := s.historyOf(storage.AttributeTable(element.Domain(), name), element.SelectionKey())
		if err != nil {
			return nil, err
		} else if !history.IsEmpty() {
			result[name] = history
		}
	}

	return result, nil
}
