package serving

import (
	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// ElementDTO is the json form of an element.
// Alter (and Direction) are for alters and ego alter dyads, Source and Target for alter alter dyads
type ElementDTO struct {
	Domain    elements.Domain `json:"domain"`
	Alter     string          `json:"alter,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Source    string          `json:"source,omitempty"`
	Target    string          `json:"target,omitempty"`
}

// DeserializeElement builds the element a dto stands for
func DeserializeElement(dto ElementDTO) (elements.Element, error) {
	switch dto.Domain {
	case elements.EGO:
		return elements.Ego{}, nil
	case elements.ALTER:
		return elements.Alter{Name: dto.Alter}, nil
	case elements.EGO_ALTER:
		direction := elements.OUT
		if dto.Direction != "" {
			if parsed, err := elements.ParseDirection(dto.Direction); err != nil {
				return nil, err
			} else {
				direction = parsed
			}
		}

		return elements.EgoAlterDyad{Alter: dto.Alter, Direction: direction}, nil
	case elements.ALTER_ALTER:
		return elements.AlterAlterDyad{Source: dto.Source, Target: dto.Target}, nil
	default:
		return nil, errors.Newf("unknown domain %d", dto.Domain)
	}
}

// SerializeElement returns the dto of an element
func SerializeElement(element elements.Element) ElementDTO {
	switch e := element.(type) {
	case elements.Alter:
		return ElementDTO{Domain: elements.ALTER, Alter: e.Name}
	case elements.EgoAlterDyad:
		return ElementDTO{Domain: elements.EGO_ALTER, Alter: e.Alter, Direction: e.Direction.String()}
	case elements.AlterAlterDyad:
		return ElementDTO{Domain: elements.ALTER_ALTER, Source: e.Source, Target: e.Target}
	default:
		return ElementDTO{Domain: elements.EGO}
	}
}

// SerializeElements returns the dto of each element, same order
func SerializeElements(values []elements.Element) []ElementDTO {
	result := make([]ElementDTO, 0, len(values))
	for _, value := range values {
		result = append(result, SerializeElement(value))
	}

	return result
}

// TimedValueDTO is a value during an interval, as [start;end[ or [point]
type TimedValueDTO struct {
	Interval string `json:"interval"`
	Value    string `json:"value"`
}

// SerializeHistory returns the entries of a history, ascending
func SerializeHistory(history *lifetimes.TimeVaryingValue) []TimedValueDTO {
	entries := history.Entries()
	result := make([]TimedValueDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, TimedValueDTO{Interval: entry.Interval.String(), Value: entry.Value})
	}

	return result
}

// FactDTO is the json form of a fact to import
type FactDTO struct {
	Kind      versioned.FactKind `json:"kind"`
	Element   ElementDTO         `json:"element"`
	Interval  string             `json:"interval"`
	Attribute string             `json:"attribute,omitempty"`
	Value     string             `json:"value,omitempty"`
}

// DeserializeFacts builds facts from dtos. Errors mention the index of the invalid fact
func DeserializeFacts(dtos []FactDTO) ([]versioned.Fact, error) {
	result := make([]versioned.Fact, 0, len(dtos))
	for index, dto := range dtos {
		element, err := DeserializeElement(dto.Element)
		if err != nil {
			return nil, errors.Wrapf(err, "fact %d", index)
		}

		interval, err := lifetimes.ParseTimeInterval(dto.Interval)
		if err != nil {
			return nil, errors.Wrapf(err, "fact %d", index)
		}

		result = append(result, versioned.Fact{
			Kind:      dto.Kind,
			Element:   element,
			Interval:  interval,
			Attribute: dto.Attribute,
			Value:     dto.Value,
		})
	}

	return result, nil
}

// ImportResultDTO is the result of an import
type ImportResultDTO struct {
	Applied  int                `json:"applied"`
	Rejected []ImportRejectedDTO `json:"rejected"`
}

// ImportRejectedDTO is a rejected fact
type ImportRejectedDTO struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// SerializeImportReport returns the dto of an import report
func SerializeImportReport(report versioned.ImportReport) ImportResultDTO {
	result := ImportResultDTO{Applied: report.Applied, Rejected: make([]ImportRejectedDTO, 0, len(report.Rejected))}
	for _, rejected := range report.Rejected {
		result.Rejected = append(result.Rejected, ImportRejectedDTO{
			Index:  rejected.Index,
			Kind:   string(rejected.Rejection.Kind),
			Reason: rejected.Rejection.Message,
		})
	}

	return result
}
