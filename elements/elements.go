package elements

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Domain is the kind of an element
type Domain int

const (
	// EGO is the domain of the ego, unique
	EGO Domain = iota
	// ALTER is the domain of alters, identified by their name
	ALTER
	// EGO_ALTER is the domain of dyads between ego and an alter
	EGO_ALTER
	// ALTER_ALTER is the domain of dyads between two alters
	ALTER_ALTER
)

// AllDomains returns domains by rank
func AllDomains() []Domain {
	return []Domain{EGO, ALTER, EGO_ALTER, ALTER_ALTER}
}

// String returns the serialized name of the domain
func (d Domain) String() string {
	switch d {
	case EGO:
		return "ego"
	case ALTER:
		return "alter"
	case EGO_ALTER:
		return "ego_alter"
	case ALTER_ALTER:
		return "alter_alter"
	default:
		return "unknown"
	}
}

// IsDyadic returns true for domains of dyads
func (d Domain) IsDyadic() bool {
	return d == EGO_ALTER || d == ALTER_ALTER
}

// ParseDomain returns the domain for its name, case insensitive
func ParseDomain(value string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ego":
		return EGO, nil
	case "alter":
		return ALTER, nil
	case "ego_alter", "ego-alter", "egoalter":
		return EGO_ALTER, nil
	case "alter_alter", "alter-alter", "alteralter":
		return ALTER_ALTER, nil
	default:
		return EGO, errors.Newf("unknown domain %q", value)
	}
}

// MarshalText serializes the domain by its name
func (d Domain) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText reads a domain name
func (d *Domain) UnmarshalText(text []byte) error {
	value, err := ParseDomain(string(text))
	if err != nil {
		return err
	}

	*d = value
	return nil
}

// Direction is the direction of an ego alter dyad
type Direction int

const (
	// OUT is from ego to alter
	OUT Direction = iota
	// IN is from alter to ego
	IN
)

// String returns OUT or IN
func (d Direction) String() string {
	if d == IN {
		return "IN"
	}

	return "OUT"
}

// Reverse flips the direction
func (d Direction) Reverse() Direction {
	if d == IN {
		return OUT
	}

	return IN
}

// ParseDirection reads OUT or IN, case insensitive
func ParseDirection(value string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "OUT":
		return OUT, nil
	case "IN":
		return IN, nil
	default:
		return OUT, errors.Newf("invalid direction %q", value)
	}
}

// Element is the identity of a node or a tie: ego, an alter, or a dyad.
// Implementations are value types, compared structurally.
// The set of implementations is closed: Ego, Alter, EgoAlterDyad and AlterAlterDyad.
type Element interface {
	// Domain returns the domain of the element
	Domain() Domain
	// IsDyadic returns true for dyads
	IsDyadic() bool
	// Reverse returns the dyad in the other direction, or the element itself for ego and alters
	Reverse() Element
	// SelectionKey returns the identifying fields used to address rows for that element
	SelectionKey() []string
	// String returns a readable form of the element
	String() string

	// sealed forbids implementations outside this package
	sealed()
}

// Ego is the person the network is about. There is only one ego
type Ego struct{}

// Alter is a person ego knows, identified by a name
type Alter struct {
	Name string
}

// EgoAlterDyad is the tie between ego and an alter, in a given direction
type EgoAlterDyad struct {
	Alter     string
	Direction Direction
}

// AlterAlterDyad is the tie from an alter to another one
type AlterAlterDyad struct {
	Source string
	Target string
}

func (Ego) sealed()            {}
func (Alter) sealed()          {}
func (EgoAlterDyad) sealed()   {}
func (AlterAlterDyad) sealed() {}

func (Ego) Domain() Domain            { return EGO }
func (Alter) Domain() Domain          { return ALTER }
func (EgoAlterDyad) Domain() Domain   { return EGO_ALTER }
func (AlterAlterDyad) Domain() Domain { return ALTER_ALTER }

func (Ego) IsDyadic() bool            { return false }
func (Alter) IsDyadic() bool          { return false }
func (EgoAlterDyad) IsDyadic() bool   { return true }
func (AlterAlterDyad) IsDyadic() bool { return true }

// Reverse returns ego
func (e Ego) Reverse() Element { return e }

// Reverse returns the alter itself
func (a Alter) Reverse() Element { return a }

// Reverse flips the direction
func (d EgoAlterDyad) Reverse() Element {
	return EgoAlterDyad{Alter: d.Alter, Direction: d.Direction.Reverse()}
}

// Reverse swaps source and target
func (d AlterAlterDyad) Reverse() Element {
	return AlterAlterDyad{Source: d.Target, Target: d.Source}
}

// SelectionKey is empty for ego
func (Ego) SelectionKey() []string { return []string{} }

// SelectionKey is the name of the alter
func (a Alter) SelectionKey() []string { return []string{a.Name} }

// SelectionKey is the alter name and the direction
func (d EgoAlterDyad) SelectionKey() []string {
	return []string{d.Alter, d.Direction.String()}
}

// SelectionKey is source then target
func (d AlterAlterDyad) SelectionKey() []string {
	return []string{d.Source, d.Target}
}

func (Ego) String() string     { return "ego" }
func (a Alter) String() string { return "alter(" + a.Name + ")" }

func (d EgoAlterDyad) String() string {
	if d.Direction == IN {
		return "ego<-" + d.Alter
	}

	return "ego->" + d.Alter
}

func (d AlterAlterDyad) String() string {
	return d.Source + "->" + d.Target
}

// AlterOf returns the alter of an ego alter dyad
func (d EgoAlterDyad) AlterOf() Alter {
	return Alter{Name: d.Alter}
}

// Endpoints returns source and target alters
func (d AlterAlterDyad) Endpoints() (Alter, Alter) {
	return Alter{Name: d.Source}, Alter{Name: d.Target}
}

// Mentions returns true if the dyad has name as source or target
func (d AlterAlterDyad) Mentions(name string) bool {
	return d.Source == name || d.Target == name
}

// Compare is the canonical order of elements:
// domain rank first, then identifying fields, OUT before IN for ego alter dyads.
// It returns -1, 0 or 1 and is consistent with ==.
func Compare(a, b Element) int {
	if a.Domain() != b.Domain() {
		if a.Domain() < b.Domain() {
			return -1
		}

		return 1
	}

	switch first := a.(type) {
	case Ego:
		return 0
	case Alter:
		return strings.Compare(first.Name, b.(Alter).Name)
	case EgoAlterDyad:
		second := b.(EgoAlterDyad)
		if result := strings.Compare(first.Alter, second.Alter); result != 0 {
			return result
		} else if first.Direction == second.Direction {
			return 0
		} else if first.Direction == OUT {
			return -1
		}

		return 1
	case AlterAlterDyad:
		second := b.(AlterAlterDyad)
		if result := strings.Compare(first.Source, second.Source); result != 0 {
			return result
		}

		return strings.Compare(first.Target, second.Target)
	default:
		panic(errors.AssertionFailedf("unexpected element %T", a))
	}
}

// Less returns true if a is strictly before b
func Less(a, b Element) bool {
	return Compare(a, b) < 0
}

// FromSelectionKey builds the element of domain from its selection key
func FromSelectionKey(domain Domain, key []string) (Element, error) {
	switch domain {
	case EGO:
		if len(key) != 0 {
			return nil, errors.Newf("ego key should be empty, got %d parts", len(key))
		}

		return Ego{}, nil
	case ALTER:
		if len(key) != 1 {
			return nil, errors.Newf("alter key should have one part, got %d", len(key))
		}

		return Alter{Name: key[0]}, nil
	case EGO_ALTER:
		if len(key) != 2 {
			return nil, errors.Newf("ego alter key should have two parts, got %d", len(key))
		}

		direction, err := ParseDirection(key[1])
		if err != nil {
			return nil, err
		}

		return EgoAlterDyad{Alter: key[0], Direction: direction}, nil
	case ALTER_ALTER:
		if len(key) != 2 {
			return nil, errors.Newf("alter alter key should have two parts, got %d", len(key))
		}

		return AlterAlterDyad{Source: key[0], Target: key[1]}, nil
	default:
		return nil, errors.Newf("unknown domain %d", domain)
	}
}

// ErrBlankName is raised for an empty (or only spaces) name
var ErrBlankName = errors.New("blank name")

// ErrInvalidName is raised for names with control characters
var ErrInvalidName = errors.New("invalid name")

// ErrSelfLoop is raised for an alter alter dyad from an alter to itself
var ErrSelfLoop = errors.New("dyad from an alter to itself")

// ValidateName checks that name is not blank and has no control character
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrBlankName
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.Wrapf(ErrInvalidName, "%q", name)
		}
	}

	return nil
}

// Validate checks identifying fields of an element
func Validate(element Element) error {
	switch e := element.(type) {
	case nil:
		return errors.New("nil element")
	case Ego:
		return nil
	case Alter:
		return ValidateName(e.Name)
	case EgoAlterDyad:
		if e.Direction != OUT && e.Direction != IN {
			return errors.Newf("invalid direction %d", e.Direction)
		}

		return ValidateName(e.Alter)
	case AlterAlterDyad:
		if err := ValidateName(e.Source); err != nil {
			return err
		} else if err := ValidateName(e.Target); err != nil {
			return err
		} else if e.Source == e.Target {
			return errors.Wrapf(ErrSelfLoop, "%s", e.Source)
		}

		return nil
	default:
		return errors.Newf("unexpected element %T", element)
	}
}

// Alters returns the alters an element depends on: none for ego, itself for an alter, endpoints for dyads
func Alters(element Element) []Alter {
	switch e := element.(type) {
	case Alter:
		return []Alter{e}
	case EgoAlterDyad:
		return []Alter{e.AlterOf()}
	case AlterAlterDyad:
		source, target := e.Endpoints()
		return []Alter{source, target}
	default:
		return nil
	}
}
