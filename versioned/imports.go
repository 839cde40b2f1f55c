package versioned

import (
	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// FactKind is the operation a fact stands for
type FactKind string

const (
	// ADD_FACT extends the lifetime of an element
	ADD_FACT FactKind = "add"
	// REMOVE_FACT cuts the lifetime of an element
	REMOVE_FACT FactKind = "remove"
	// VALUE_FACT sets a value of an attribute for an element
	VALUE_FACT FactKind = "value"
)

// Fact is an elementary change to import
type Fact struct {
	Kind      FactKind
	Element   elements.Element
	Interval  lifetimes.TimeInterval
	Attribute string
	Value     string
}

// ImportRejection is a fact that changed nothing
type ImportRejection struct {
	// Index of the fact in the batch
	Index     int
	Rejection *RejectionError
}

// ImportReport counts applied facts and lists rejected ones
type ImportReport struct {
	Applied  int
	Rejected []ImportRejection
}

// applyFact runs the operation of a fact
func (s *Session) applyFact(fact Fact) error {
	switch fact.Kind {
	case ADD_FACT:
		return s.AddElement(fact.Element, fact.Interval)
	case REMOVE_FACT:
		return s.RemoveElement(fact.Element, fact.Interval)
	case VALUE_FACT:
		return s.SetAttributeValueAt(fact.Interval, fact.Attribute, fact.Element, fact.Value)
	default:
		return s.reject(InvalidIdentifier, "import", "unknown fact kind %q", fact.Kind)
	}
}

// Import applies facts in order. Rejected facts are reported and skipped.
// Any other error stops the import
func (s *Session) Import(facts []Fact) (ImportReport, error) {
	var report ImportReport
	for index, fact := range facts {
		err := s.applyFact(fact)
		if rejection, rejected := AsRejection(err); rejected {
			report.Rejected = append(report.Rejected, ImportRejection{Index: index, Rejection: rejection})
			continue
		} else if err != nil {
			return report, errors.Wrapf(err, "import failed at fact %d", index)
		}

		report.Applied++
	}

	return report, nil
}
