package schema

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// ValueType is the type of the values of an attribute
type ValueType int

const (
	// TEXT accepts any value
	TEXT ValueType = iota
	// NUMBER accepts decimal numbers
	NUMBER
	// FINITE_CHOICE accepts values among a set of choices
	FINITE_CHOICE
)

// DynamicType tells if values last (states) or are punctual (events)
type DynamicType int

const (
	// STATE is a value holding during an interval, for instance a city of residence
	STATE DynamicType = iota
	// EVENT is a value for an happening, for instance a phone call
	EVENT
)

// DirectionType governs how values of dyadic attributes relate to the reverse dyad
type DirectionType int

const (
	// NO_DIRECTION is the only direction type for ego and alter attributes
	NO_DIRECTION DirectionType = iota
	// SYMMETRIC values are the same for a dyad and its reverse
	SYMMETRIC
	// ASYMMETRIC values are independent for a dyad and its reverse
	ASYMMETRIC
	// OUTWARD values only exist for ego to alter dyads
	OUTWARD
	// INWARD values only exist for alter to ego dyads
	INWARD
)

var valueTypeNames = []string{"TEXT", "NUMBER", "FINITE_CHOICE"}
var dynamicTypeNames = []string{"STATE", "EVENT"}
var directionTypeNames = []string{"NONE", "SYMMETRIC", "ASYMMETRIC", "OUT", "IN"}

// parseName returns the index of value in names, if any
func parseName(names []string, value string) (int, bool) {
	index := slices.Index(names, strings.ToUpper(strings.TrimSpace(value)))
	return index, index >= 0
}

func (v ValueType) String() string {
	if v < 0 || int(v) >= len(valueTypeNames) {
		return "UNKNOWN"
	}

	return valueTypeNames[v]
}

func (d DynamicType) String() string {
	if d < 0 || int(d) >= len(dynamicTypeNames) {
		return "UNKNOWN"
	}

	return dynamicTypeNames[d]
}

func (d DirectionType) String() string {
	if d < 0 || int(d) >= len(directionTypeNames) {
		return "UNKNOWN"
	}

	return directionTypeNames[d]
}

// ParseValueType reads TEXT, NUMBER or FINITE_CHOICE
func ParseValueType(value string) (ValueType, error) {
	if index, found := parseName(valueTypeNames, value); found {
		return ValueType(index), nil
	}

	return TEXT, errors.Wrapf(ErrInvalidType, "value type %q", value)
}

// ParseDynamicType reads STATE or EVENT
func ParseDynamicType(value string) (DynamicType, error) {
	if index, found := parseName(dynamicTypeNames, value); found {
		return DynamicType(index), nil
	}

	return STATE, errors.Wrapf(ErrInvalidType, "dynamic type %q", value)
}

// ParseDirectionType reads NONE, SYMMETRIC, ASYMMETRIC, OUT or IN. Empty means NONE
func ParseDirectionType(value string) (DirectionType, error) {
	if strings.TrimSpace(value) == "" {
		return NO_DIRECTION, nil
	} else if index, found := parseName(directionTypeNames, value); found {
		return DirectionType(index), nil
	}

	return NO_DIRECTION, errors.Wrapf(ErrInvalidDirection, "%q", value)
}

func (v ValueType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *ValueType) UnmarshalText(text []byte) error {
	value, err := ParseValueType(string(text))
	*v = value
	return err
}

func (d DynamicType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DynamicType) UnmarshalText(text []byte) error {
	value, err := ParseDynamicType(string(text))
	*d = value
	return err
}

func (d DirectionType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DirectionType) UnmarshalText(text []byte) error {
	value, err := ParseDirectionType(string(text))
	*d = value
	return err
}

var (
	// ErrBlankName is raised for attributes with no name
	ErrBlankName = errors.New("blank attribute name")
	// ErrInvalidType is raised for unknown value or dynamic types
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidDirection is raised when the direction type does not fit the domain
	ErrInvalidDirection = errors.New("invalid direction type")
	// ErrIncompatibleValue is raised when a value does not match the value type
	ErrIncompatibleValue = errors.New("incompatible value")
)

// Attribute is the declaration of an attribute for a domain
type Attribute struct {
	// Name of the attribute, unique per domain
	Name string `json:"name"`
	// Domain is the domain of elements this attribute applies to
	Domain elements.Domain `json:"domain"`
	// ValueType constrains values
	ValueType ValueType `json:"valueType"`
	// DynamicType is informative: states or events
	DynamicType DynamicType `json:"dynamicType"`
	// Direction is used for dyadic domains only
	Direction DirectionType `json:"direction"`
	// Description is a free text
	Description string `json:"description,omitempty"`
	// Choices are the accepted values for FINITE_CHOICE, sorted
	Choices []string `json:"choices,omitempty"`
}

// allowedDirections returns the direction types that fit a domain
func allowedDirections(domain elements.Domain) []DirectionType {
	switch domain {
	case elements.EGO_ALTER:
		return []DirectionType{SYMMETRIC, ASYMMETRIC, OUTWARD, INWARD}
	case elements.ALTER_ALTER:
		return []DirectionType{SYMMETRIC, ASYMMETRIC}
	default:
		return []DirectionType{NO_DIRECTION}
	}
}

// ValidateAttributeName checks that name is not blank and has no control character
func ValidateAttributeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrBlankName
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.Newf("invalid attribute name %q", name)
		}
	}

	return nil
}

// Validate checks the declaration
func (a Attribute) Validate() error {
	if err := ValidateAttributeName(a.Name); err != nil {
		return err
	}

	if !slices.Contains(elements.AllDomains(), a.Domain) {
		return errors.Newf("unknown domain %d", a.Domain)
	}

	if a.ValueType < TEXT || a.ValueType > FINITE_CHOICE {
		return errors.Wrapf(ErrInvalidType, "value type %d", a.ValueType)
	} else if a.DynamicType != STATE && a.DynamicType != EVENT {
		return errors.Wrapf(ErrInvalidType, "dynamic type %d", a.DynamicType)
	}

	if !slices.Contains(allowedDirections(a.Domain), a.Direction) {
		return errors.Wrapf(ErrInvalidDirection, "%s for domain %s", a.Direction, a.Domain)
	}

	for _, choice := range a.Choices {
		if lifetimes.IsUnassigned(choice) {
			return errors.Wrapf(ErrIncompatibleValue, "choice %q", choice)
		}
	}

	return nil
}

// Normalize returns a copy with sorted distinct choices
func (a Attribute) Normalize() Attribute {
	result := a
	result.Choices = slices.Clone(a.Choices)
	slices.Sort(result.Choices)
	result.Choices = slices.Compact(result.Choices)
	if a.ValueType != FINITE_CHOICE {
		result.Choices = nil
	}

	return result
}

// IsSymmetric returns true if values are mirrored on the reverse dyad
func (a Attribute) IsSymmetric() bool {
	return a.Direction == SYMMETRIC && a.Domain.IsDyadic()
}

// AcceptsElement returns true if element may hold values of the attribute.
// OUT (resp. IN) attributes are only valid for dyads from ego to alter (resp. alter to ego).
func (a Attribute) AcceptsElement(element elements.Element) bool {
	if element == nil || element.Domain() != a.Domain {
		return false
	}

	dyad, ok := element.(elements.EgoAlterDyad)
	if !ok {
		return true
	}

	switch a.Direction {
	case OUTWARD:
		return dyad.Direction == elements.OUT
	case INWARD:
		return dyad.Direction == elements.IN
	default:
		return true
	}
}

// HasChoice returns true if choice is accepted
func (a Attribute) HasChoice(choice string) bool {
	_, found := slices.BinarySearch(a.Choices, choice)
	return found
}

// AddChoice inserts choice, keeping choices sorted. It returns false if choice was already there
func (a *Attribute) AddChoice(choice string) bool {
	index, found := slices.BinarySearch(a.Choices, choice)
	if found {
		return false
	}

	a.Choices = slices.Insert(a.Choices, index, choice)
	return true
}

// NormalizeValue returns the value to store, or an error if value does not match the value type.
// Numbers are stored without surrounding spaces, so that equal numbers coalesce.
// Unassigned values are always accepted, they mean a removal.
// Unknown choices are accepted too: caller should add them as new choices.
func (a Attribute) NormalizeValue(value string) (string, error) {
	if lifetimes.IsUnassigned(value) {
		return value, nil
	}

	switch a.ValueType {
	case NUMBER:
		trimmed := strings.TrimSpace(value)
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return value, errors.Wrapf(ErrIncompatibleValue, "%q is not a number", value)
		}

		return trimmed, nil
	default:
		return value, nil
	}
}

// IsCompatibleChange returns true if other may replace a while values exist
func (a Attribute) IsCompatibleChange(other Attribute) bool {
	return a.Domain == other.Domain && a.ValueType == other.ValueType && a.Direction == other.Direction
}
