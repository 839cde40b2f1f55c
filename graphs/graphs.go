package graphs

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// Value is the value of an attribute for an element, with its datum id
type Value struct {
	Value   string `json:"value"`
	DatumID int64  `json:"datumId"`
}

// Node is ego or an alter, with its attribute values
type Node struct {
	// Element is ego or an alter
	Element elements.Element
	// Attributes are values per attribute name
	Attributes map[string]Value
}

// Edge is a dyad, from ego or an alter to ego or an alter
type Edge struct {
	// Element is the dyad
	Element elements.Element
	// Source is the name of the source alter, empty for ego
	Source string
	// Target is the name of the target alter, empty for ego
	Target string
	// Attributes are values per attribute name
	Attributes map[string]Value
}

// Graph is the ego network at a moment
type Graph struct {
	// Id is the id of the snapshot
	Id string
	// At is the moment of the snapshot
	At lifetimes.Moment
	// values are nodes and edges per element
	values map[elements.Element]int
	nodes  []Node
	edges  []Edge
}

// NewEmptyGraph returns a graph with no node
func NewEmptyGraph(at lifetimes.Moment) Graph {
	return Graph{
		Id:     uuid.NewString(),
		At:     at,
		values: make(map[elements.Element]int),
	}
}

// AddElement adds a node for ego and alters, an edge for dyads. Adding twice changes nothing
func (g *Graph) AddElement(element elements.Element) {
	if g == nil || element == nil {
		return
	} else if _, found := g.values[element]; found {
		return
	}

	switch e := element.(type) {
	case elements.EgoAlterDyad:
		edge := Edge{Element: e, Target: e.Alter, Attributes: make(map[string]Value)}
		if e.Direction == elements.IN {
			edge.Source, edge.Target = e.Alter, ""
		}

		g.values[element] = len(g.edges)
		g.edges = append(g.edges, edge)
	case elements.AlterAlterDyad:
		g.values[element] = len(g.edges)
		g.edges = append(g.edges, Edge{Element: e, Source: e.Source, Target: e.Target, Attributes: make(map[string]Value)})
	default:
		g.values[element] = len(g.nodes)
		g.nodes = append(g.nodes, Node{Element: element, Attributes: make(map[string]Value)})
	}
}

// SetValue sets the value of an attribute for an element of the graph.
// It returns false if element is not in the graph
func (g *Graph) SetValue(element elements.Element, attribute string, value Value) bool {
	if g == nil {
		return false
	}

	index, found := g.values[element]
	if !found {
		return false
	} else if element.IsDyadic() {
		g.edges[index].Attributes[attribute] = value
	} else {
		g.nodes[index].Attributes[attribute] = value
	}

	return true
}

// Nodes returns ego and alters, sorted
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}

	result := slices.Clone(g.nodes)
	slices.SortFunc(result, func(a, b Node) int { return elements.Compare(a.Element, b.Element) })
	return result
}

// Edges returns dyads, sorted
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}

	result := slices.Clone(g.edges)
	slices.SortFunc(result, func(a, b Edge) int { return elements.Compare(a.Element, b.Element) })
	return result
}

// Neighbours returns the sorted names of alters with a tie to or from name
func (g *Graph) Neighbours(name string) []string {
	if g == nil {
		return nil
	}

	var result []string
	for _, edge := range g.edges {
		if _, ok := edge.Element.(elements.AlterAlterDyad); !ok {
			continue
		} else if edge.Source == name {
			result = append(result, edge.Target)
		} else if edge.Target == name {
			result = append(result, edge.Source)
		}
	}

	slices.Sort(result)
	return slices.Compact(result)
}

// Build reads the graph at moment at within session.
// Nodes are ego and the alters existing at, edges are their dyads existing at.
// Ego alter dyads are edges only if they have a value at
func Build(session *versioned.Session, at lifetimes.Moment) (Graph, error) {
	graph := NewEmptyGraph(at)
	entities, err := session.GetAllEntitiesAt(lifetimes.NewTimePoint(at))
	if err != nil {
		return graph, err
	}

	for _, entity := range entities {
		if _, ok := entity.(elements.EgoAlterDyad); !ok {
			graph.AddElement(entity)
		}
	}

	for _, domain := range elements.AllDomains() {
		names, err := session.GetAllAttributeNames(domain)
		if err != nil {
			return graph, err
		}

		for _, name := range names {
			values, err := session.GetValuesOfAttributeAcrossAllElementsAt(at, domain, name)
			if err != nil {
				return graph, err
			}

			for _, current := range values {
				if domain == elements.EGO_ALTER {
					graph.AddElement(current.Element)
				}

				graph.SetValue(current.Element, name, Value{Value: current.Value, DatumID: current.DatumID})
			}
		}
	}

	return graph, nil
}

// BuildFromStore reads the graph at moment at in a read only transaction
func BuildFromStore(ctx context.Context, store *versioned.Store, at lifetimes.Moment) (Graph, error) {
	var result Graph
	err := store.View(ctx, func(session *versioned.Session) error {
		var err error
		result, err = Build(session, at)
		return err
	})

	return result, err
}
