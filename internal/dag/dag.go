// Package dag analyzes the chain topology of a curriculum snapshot for
// authoring diagnostics: cycle detection on lesson/tune chains, chain
// roots, and the sequence each track heads. The compiler itself does
// not need this view; a chain cycle still compiles (membership
// propagation terminates) but is almost always an authoring mistake
// worth surfacing.
package dag

import (
	"fmt"
	"sort"

	"github.com/notatio-labs/curricc/pkg/core"
)

// ChainGraph is the projection of a snapshot onto its chain (default)
// edges. Tracks, lessons, and tunes are vertices; requirement and
// unlockable edges are excluded.
type ChainGraph struct {
	labels map[string]string
	next   map[string][]string
	prev   map[string][]string
}

// FromGraph builds the chain projection. Edges whose endpoints are
// missing from the node list are skipped; the compiler reports those.
func FromGraph(g *core.Graph) *ChainGraph {
	cg := &ChainGraph{
		labels: make(map[string]string),
		next:   make(map[string][]string),
		prev:   make(map[string][]string),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type == core.NodeTypeSkill {
			continue
		}
		cg.labels[n.ID] = fmt.Sprintf("%s %q", n.Type, n.Key)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.Kind != core.KindDefault {
			continue
		}
		if _, ok := cg.labels[e.Source]; !ok {
			continue
		}
		if _, ok := cg.labels[e.Target]; !ok {
			continue
		}
		cg.next[e.Source] = append(cg.next[e.Source], e.Target)
		cg.prev[e.Target] = append(cg.prev[e.Target], e.Source)
	}
	return cg
}

// NodeCount returns the number of chain vertices.
func (cg *ChainGraph) NodeCount() int { return len(cg.labels) }

// EdgeCount returns the number of chain edges.
func (cg *ChainGraph) EdgeCount() int {
	count := 0
	for _, targets := range cg.next {
		count += len(targets)
	}
	return count
}

// Label returns the human-readable label for a vertex.
func (cg *ChainGraph) Label(id string) string { return cg.labels[id] }

// Roots returns vertices with no inbound chain edge, sorted by label.
// Well-formed chains are rooted at tracks; a non-track root is an
// unanchored chain the compiler will flag as trackless.
func (cg *ChainGraph) Roots() []string {
	var roots []string
	for id := range cg.labels {
		if len(cg.prev[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return cg.labels[roots[i]] < cg.labels[roots[j]] })
	return roots
}

// HasCycle reports whether the chain projection contains a cycle, along
// with one witness path. Traversal order is sorted so the witness is
// deterministic.
func (cg *ChainGraph) HasCycle() (bool, []string) {
	ids := cg.sortedIDs()

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		targets := append([]string(nil), cg.next[id]...)
		sort.Strings(targets)
		for _, t := range targets {
			if onStack[t] {
				cycle = []string{t}
				for cur := id; cur != t; cur = parent[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{t}, cycle...)
				return true
			}
			if !visited[t] {
				parent[t] = id
				if dfs(t) {
					return true
				}
			}
		}
		onStack[id] = false
		return false
	}

	for _, id := range ids {
		if !visited[id] && dfs(id) {
			return true, cycle
		}
	}
	return false, nil
}

// Sequence follows the chain forward from a vertex, returning the
// visited vertices in order. It stops when the chain ends, branches
// back on itself, or revisits a vertex.
func (cg *ChainGraph) Sequence(fromID string) []string {
	seen := map[string]bool{fromID: true}
	seq := []string{fromID}
	cur := fromID
	for {
		targets := cg.next[cur]
		if len(targets) == 0 {
			return seq
		}
		nxt := targets[0]
		if seen[nxt] {
			return seq
		}
		seen[nxt] = true
		seq = append(seq, nxt)
		cur = nxt
	}
}

// Chains returns the sequence headed by each root, keyed by root id.
func (cg *ChainGraph) Chains() map[string][]string {
	out := make(map[string][]string)
	for _, root := range cg.Roots() {
		out[root] = cg.Sequence(root)
	}
	return out
}

func (cg *ChainGraph) sortedIDs() []string {
	ids := make([]string, 0, len(cg.labels))
	for id := range cg.labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
