package mdt

import (
	"context"

	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/model"
)

// Node is one step of a declaratively wired graph: a function from state to
// updated state. Edges pick the next node; the driver loop below applies a
// node, then walks its outgoing edges to find the next one.
type Node func(ctx context.Context, s model.MDTState) (model.MDTState, error)

// Edge connects two named nodes. A nil When makes the edge unconditional;
// edges for a node are tried in the order they were added and the first
// matching one wins.
type Edge struct {
	To   string
	When func(model.MDTState) bool
}

// Graph is a small interpreter over a statically declared set of nodes and
// edges: the triage, fan-out, review, and marker stages are wired together
// this way rather than as a bespoke hand-written control-flow chain, so
// each stays independently testable.
type Graph struct {
	nodes map[string]Node
	edges map[string][]Edge
	start string
}

// NewGraph returns an empty graph whose driver begins at start.
func NewGraph(start string) *Graph {
	return &Graph{
		nodes: map[string]Node{},
		edges: map[string][]Edge{},
		start: start,
	}
}

// AddNode registers a named node.
func (g *Graph) AddNode(name string, n Node) {
	g.nodes[name] = n
}

// AddEdge adds an outgoing edge from a node. when may be nil for an
// unconditional edge; it is only evaluated if no earlier edge from the same
// node already matched.
func (g *Graph) AddEdge(from, to string, when func(model.MDTState) bool) {
	g.edges[from] = append(g.edges[from], Edge{To: to, When: when})
}

// Run drives the graph from its start node until a node has no matching
// outgoing edge, applying each node and merging its returned state before
// picking the next edge.
func (g *Graph) Run(ctx context.Context, s model.MDTState) (model.MDTState, error) {
	current := g.start

	for current != "" {
		node, ok := g.nodes[current]
		if !ok {
			break
		}

		sc := logger.StartSpan(ctx, "mdt.graph."+current)
		updated, err := node(sc.Context(), s)
		if err != nil {
			sc.RecordError(err)
		}
		sc.End()
		if err != nil {
			return updated, err
		}
		s = updated

		current = g.nextNode(current, s)
	}

	return s, nil
}

func (g *Graph) nextNode(from string, s model.MDTState) string {
	for _, e := range g.edges[from] {
		if e.When == nil || e.When(s) {
			return e.To
		}
	}
	return ""
}
