package core

// Graph is an immutable snapshot of the authoring graph: the shape the
// editor's persistence layer hands over for validation and compilation.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NodeByID builds an index of nodes keyed by ID. Later duplicates win,
// matching the editor's last-write semantics; duplicate IDs are caught
// by the compiler's structural phase.
func (g *Graph) NodeByID() map[string]*Node {
	idx := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return idx
}

// NodesOfType returns the nodes of the given type in snapshot order.
func (g *Graph) NodesOfType(t NodeType) []*Node {
	var out []*Node
	for i := range g.Nodes {
		if g.Nodes[i].Type == t {
			out = append(out, &g.Nodes[i])
		}
	}
	return out
}

// Stats summarizes a snapshot for tooling (dag command, /graph/stats).
type Stats struct {
	Tracks  int `json:"tracks"`
	Lessons int `json:"lessons"`
	Skills  int `json:"skills"`
	Tunes   int `json:"tunes"`

	DefaultEdges     int `json:"defaultEdges"`
	RequirementEdges int `json:"requirementEdges"`
	UnlockableEdges  int `json:"unlockableEdges"`
}

// Stats counts nodes per type and edges per kind.
func (g *Graph) Stats() Stats {
	var s Stats
	for i := range g.Nodes {
		switch g.Nodes[i].Type {
		case NodeTypeTrack:
			s.Tracks++
		case NodeTypeLesson:
			s.Lessons++
		case NodeTypeSkill:
			s.Skills++
		case NodeTypeTune:
			s.Tunes++
		}
	}
	for i := range g.Edges {
		switch g.Edges[i].Kind {
		case KindRequirement:
			s.RequirementEdges++
		case KindUnlockable:
			s.UnlockableEdges++
		default:
			s.DefaultEdges++
		}
	}
	return s
}
