// Package graph defines the node registry, edge list and builder for gflow
// graphs. Nodes are keyed by uid and edges stored against an index-based
// adjacency, so traversal state never forms object cycles.
package graph

import (
	"github.com/go-gflow/gflow"
)

// NodeKind distinguishes ordinary transform nodes from the reserved terminal
// collector which marks declared graph outputs
type NodeKind int

const (
	// StandardNode is an ordinary transform node
	StandardNode NodeKind = iota
	// OutputNode is the reserved terminal collector. It is exempt from the
	// nil-output check and names itself in missing-output-port errors.
	OutputNode
)

// Graph is an immutable node registry plus edge list, produced by a Builder.
// It must be acyclic; the Builder verifies this.
type Graph struct {
	order        []string
	nodes        map[string]gflow.Node
	kinds        map[string]NodeKind
	edges        []gflow.Edge
	inbound      map[string][]int
	outbound     map[string][]int
	collectorUID string
	outputRefs   []string
}

func createGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]gflow.Node),
		kinds:    make(map[string]NodeKind),
		inbound:  make(map[string][]int),
		outbound: make(map[string][]int),
	}
}

func (g *Graph) addNode(node gflow.Node, kind NodeKind) bool {
	uid := node.UID()
	if _, exists := g.nodes[uid]; exists {
		return false
	}
	g.order = append(g.order, uid)
	g.nodes[uid] = node
	g.kinds[uid] = kind
	return true
}

func (g *Graph) addEdge(e gflow.Edge) {
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outbound[e.From] = append(g.outbound[e.From], idx)
	g.inbound[e.To] = append(g.inbound[e.To], idx)
}

// Node returns the Node registered under a uid, or nil
func (g *Graph) Node(uid string) gflow.Node {
	return g.nodes[uid]
}

// Kind returns the NodeKind of a registered Node
func (g *Graph) Kind(uid string) NodeKind {
	return g.kinds[uid]
}

// NumNodes returns the number of Nodes in this Graph, including the
// synthesized collector
func (g *Graph) NumNodes() int {
	return len(g.order)
}

// UIDs returns the uids of all Nodes in registration order
func (g *Graph) UIDs() []string {
	return g.order
}

// Edges returns all Edges of this Graph in registration order
func (g *Graph) Edges() []gflow.Edge {
	return g.edges
}

// Inbound returns the Edges feeding a Node, in registration order
func (g *Graph) Inbound(uid string) []gflow.Edge {
	idxs := g.inbound[uid]
	edges := make([]gflow.Edge, len(idxs))
	for i, idx := range idxs {
		edges[i] = g.edges[idx]
	}
	return edges
}

// Outbound returns the Edges leaving a Node, in registration order
func (g *Graph) Outbound(uid string) []gflow.Edge {
	idxs := g.outbound[uid]
	edges := make([]gflow.Edge, len(idxs))
	for i, idx := range idxs {
		edges[i] = g.edges[idx]
	}
	return edges
}

// Roots returns the uids of all Nodes with no inbound Edges, in registration
// order. Graph walks start here.
func (g *Graph) Roots() []string {
	roots := make([]string, 0)
	for _, uid := range g.order {
		if len(g.inbound[uid]) == 0 {
			roots = append(roots, uid)
		}
	}
	return roots
}

// CollectorUID returns the uid of the synthesized terminal collector, or the
// empty string if this Graph declares no outputs
func (g *Graph) CollectorUID() string {
	return g.collectorUID
}

// OutputRefs returns the declared graph output references ("node" or
// "node.port"), in declaration order
func (g *Graph) OutputRefs() []string {
	return g.outputRefs
}
