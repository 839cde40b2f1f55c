package versioned

import (
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// GetSecondaryAttributeValues returns the secondary values of a datum, timestamps included
func (s *Session) GetSecondaryAttributeValues(datumID int64) (map[string]string, error) {
	return s.tx.Secondaries(datumID)
}

// SetSecondaryAttributeValue sets a secondary value for a datum.
// Timestamps are maintained by the store and cannot be set
func (s *Session) SetSecondaryAttributeValue(datumID int64, name, value string) error {
	const operation = "set_secondary"
	if err := elements.ValidateName(name); err != nil {
		return s.reject(kindOfElementError(err), operation, "invalid secondary name %q", name)
	} else if IsReservedSecondary(name) {
		return s.reject(DuplicateName, operation, "%s is maintained by the store", name)
	} else if lifetimes.IsUnassigned(value) {
		return s.reject(IncompatibleValue, operation, "no value for %s", name)
	}

	if values, err := s.tx.Secondaries(datumID); err != nil {
		return err
	} else if len(values) == 0 {
		return s.reject(UnknownElement, operation, "no datum %d", datumID)
	}

	if err := s.tx.SetSecondary(datumID, name, value); err != nil {
		return err
	}

	s.applied(operation)
	return nil
}
