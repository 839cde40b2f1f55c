package serving

import (
	"github.com/zefrenchwan/egonet.git/graphs"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// NodeDTO is a node of a snapshot
type NodeDTO struct {
	Element    ElementDTO              `json:"element"`
	Attributes map[string]graphs.Value `json:"attributes,omitempty"`
}

// EdgeDTO is an edge of a snapshot. Empty source or target means ego
type EdgeDTO struct {
	Element    ElementDTO              `json:"element"`
	Source     string                  `json:"source"`
	Target     string                  `json:"target"`
	Attributes map[string]graphs.Value `json:"attributes,omitempty"`
}

// GraphDTO is the json form of a snapshot
type GraphDTO struct {
	Id    string    `json:"id"`
	At    string    `json:"at"`
	Nodes []NodeDTO `json:"nodes"`
	Edges []EdgeDTO `json:"edges"`
}

// SerializeGraph returns the dto of a snapshot
func SerializeGraph(graph graphs.Graph) GraphDTO {
	result := GraphDTO{
		Id:    graph.Id,
		At:    lifetimes.FormatMoment(graph.At),
		Nodes: make([]NodeDTO, 0),
		Edges: make([]EdgeDTO, 0),
	}

	for _, node := range graph.Nodes() {
		result.Nodes = append(result.Nodes, NodeDTO{
			Element:    SerializeElement(node.Element),
			Attributes: node.Attributes,
		})
	}

	for _, edge := range graph.Edges() {
		result.Edges = append(result.Edges, EdgeDTO{
			Element:    SerializeElement(edge.Element),
			Source:     edge.Source,
			Target:     edge.Target,
			Attributes: edge.Attributes,
		})
	}

	return result
}
