// Package graph holds the in-memory relationship graph for one contact-set
// session. The graph is built once (all nodes, then all edges) and treated
// as read-mostly afterward; it is not safe for concurrent mutation.
package graph

import (
	"github.com/kithhq/kith/internal/relation"
	"github.com/kithhq/kith/internal/relref"
)

// Node is one contact in the graph.
type Node struct {
	ID       string
	FullName string
	UID      string
	Gender   string
}

// Edge is a directed relationship. A reciprocal edge, if present, is an
// independent second edge; the graph never synthesizes reciprocals itself.
type Edge struct {
	Source     string
	Target     string
	Kind       string
	Genderless string
}

// EdgeSpec names an edge to add during a two-phase build.
type EdgeSpec struct {
	Source string
	Target string
	Kind   string
}

// Stats are aggregate counts, including edges whose endpoints were never
// resolved.
type Stats struct {
	Nodes      int
	Edges      int
	Unresolved int
}

// Graph is a node table plus adjacency lists keyed by source node id.
type Graph struct {
	nodes   map[string]Node
	order   []string
	edges   map[string][]Edge
	pending []Edge
	byUID   map[string]string
	byName  map[string]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[string]Node),
		edges:  make(map[string][]Edge),
		byUID:  make(map[string]string),
		byName: make(map[string]string),
	}
}

// GenerateID derives a deterministic node id from an identifier and full
// name using the reference resolver's namespace priority: valid UUID wins
// over any identifier, which wins over name.
func GenerateID(uid, fullName string) string {
	return relref.Make(uid, fullName).String()
}

// AddNode inserts a contact and returns its id (generated when n.ID is
// empty). Pending edges whose endpoints are now both present are promoted.
func (g *Graph) AddNode(n Node) string {
	if n.ID == "" {
		n.ID = GenerateID(n.UID, n.FullName)
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
	if n.UID != "" {
		g.byUID[n.UID] = n.ID
	}
	if n.FullName != "" {
		g.byName[n.FullName] = n.ID
	}
	g.resolvePending()
	return n.ID
}

// Node returns a contact by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeByUID looks a contact up by its UID.
func (g *Graph) NodeByUID(uid string) (Node, bool) {
	id, ok := g.byUID[uid]
	if !ok {
		return Node{}, false
	}
	return g.nodes[id], true
}

// NodeByName looks a contact up by full name.
func (g *Graph) NodeByName(name string) (Node, bool) {
	id, ok := g.byName[name]
	if !ok {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Nodes returns all contacts in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// AddEdge records a directed relationship, storing the kind both as given
// and in genderless form. When either endpoint is not present yet the edge
// is retained as unresolved until the missing node appears.
func (g *Graph) AddEdge(source, target, kind string) {
	e := Edge{Source: source, Target: target, Kind: kind, Genderless: relation.Normalize(kind)}
	if g.has(source) && g.has(target) {
		g.edges[source] = append(g.edges[source], e)
		return
	}
	g.pending = append(g.pending, e)
}

// Edges returns a node's outgoing edges in insertion order.
func (g *Graph) Edges(id string) []Edge {
	return g.edges[id]
}

// RemoveNode deletes a contact and cascades: every edge whose source or
// target is the id is removed, including unresolved ones.
func (g *Graph) RemoveNode(id string) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	delete(g.nodes, id)
	delete(g.edges, id)
	if g.byUID[n.UID] == id {
		delete(g.byUID, n.UID)
	}
	if g.byName[n.FullName] == id {
		delete(g.byName, n.FullName)
	}
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for src, list := range g.edges {
		g.edges[src] = filterEdges(list, id)
	}
	g.pending = filterEdges(g.pending, id)
}

// Stats reports aggregate counts.
func (g *Graph) Stats() Stats {
	edges := 0
	for _, list := range g.edges {
		edges += len(list)
	}
	return Stats{Nodes: len(g.nodes), Edges: edges, Unresolved: len(g.pending)}
}

// Build constructs a graph from a full contact set with the mandatory
// two-phase discipline: every node is added before any edge, so forward
// references resolve regardless of input order.
func Build(nodes []Node, specs []EdgeSpec) *Graph {
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, s := range specs {
		g.AddEdge(s.Source, s.Target, s.Kind)
	}
	return g
}

func (g *Graph) has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// resolvePending promotes unresolved edges whose endpoints now both exist.
func (g *Graph) resolvePending() {
	if len(g.pending) == 0 {
		return
	}
	var still []Edge
	for _, e := range g.pending {
		if g.has(e.Source) && g.has(e.Target) {
			g.edges[e.Source] = append(g.edges[e.Source], e)
			continue
		}
		still = append(still, e)
	}
	g.pending = still
}

func filterEdges(list []Edge, id string) []Edge {
	out := list[:0]
	for _, e := range list {
		if e.Source != id && e.Target != id {
			out = append(out, e)
		}
	}
	return out
}
