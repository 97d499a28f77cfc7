package graph

import "testing"

func TestAddNode_GeneratedID(t *testing.T) {
	g := New()
	id := g.AddNode(Node{FullName: "Jane Smith", UID: "03a0e51f-d1aa-4385-8a53-e29025acd8af"})
	if id != "urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af" {
		t.Errorf("id = %q", id)
	}
	id = g.AddNode(Node{FullName: "Alex Doe", UID: "legacy-7"})
	if id != "uid:legacy-7" {
		t.Errorf("id = %q", id)
	}
	id = g.AddNode(Node{FullName: "No Ident"})
	if id != "name:No Ident" {
		t.Errorf("id = %q", id)
	}
}

func TestLookupByUIDAndName(t *testing.T) {
	g := New()
	g.AddNode(Node{FullName: "Jane Smith", UID: "u-1"})
	if n, ok := g.NodeByUID("u-1"); !ok || n.FullName != "Jane Smith" {
		t.Errorf("NodeByUID = %+v, %v", n, ok)
	}
	if n, ok := g.NodeByName("Jane Smith"); !ok || n.UID != "u-1" {
		t.Errorf("NodeByName = %+v, %v", n, ok)
	}
	if _, ok := g.NodeByName("Nobody"); ok {
		t.Error("unexpected hit for unknown name")
	}
}

func TestAddEdge_StoresGenderlessKind(t *testing.T) {
	g := New()
	a := g.AddNode(Node{FullName: "A"})
	b := g.AddNode(Node{FullName: "B"})
	g.AddEdge(a, b, "father")

	edges := g.Edges(a)
	if len(edges) != 1 {
		t.Fatalf("edges = %v", edges)
	}
	if edges[0].Kind != "father" || edges[0].Genderless != "parent" {
		t.Errorf("edge = %+v", edges[0])
	}
}

func TestForwardReference_RetainedUntilTargetAppears(t *testing.T) {
	g := New()
	a := g.AddNode(Node{FullName: "A"})
	g.AddEdge(a, "name:B", "friend")

	if s := g.Stats(); s.Edges != 0 || s.Unresolved != 1 {
		t.Fatalf("stats before target = %+v", s)
	}

	g.AddNode(Node{FullName: "B"})
	if s := g.Stats(); s.Edges != 1 || s.Unresolved != 0 {
		t.Fatalf("stats after target = %+v", s)
	}
	if len(g.Edges(a)) != 1 {
		t.Error("promoted edge missing from adjacency list")
	}
}

func TestBuild_TwoPhase(t *testing.T) {
	// Edge listed before its target node in input order must still resolve.
	nodes := []Node{
		{FullName: "Jane Smith", UID: "u-jane"},
		{FullName: "Alex Smith", UID: "u-alex"},
	}
	specs := []EdgeSpec{
		{Source: "uid:u-jane", Target: "uid:u-alex", Kind: "child"},
		{Source: "uid:u-alex", Target: "uid:u-jane", Kind: "parent"},
	}
	g := Build(nodes, specs)
	if s := g.Stats(); s.Nodes != 2 || s.Edges != 2 || s.Unresolved != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRemoveNode_Cascades(t *testing.T) {
	g := New()
	a := g.AddNode(Node{FullName: "A", UID: "ua"})
	b := g.AddNode(Node{FullName: "B", UID: "ub"})
	c := g.AddNode(Node{FullName: "C", UID: "uc"})
	g.AddEdge(a, b, "friend")
	g.AddEdge(b, c, "colleague")
	g.AddEdge(c, a, "friend")

	g.RemoveNode(b)

	if _, ok := g.Node(b); ok {
		t.Error("node still present")
	}
	if _, ok := g.NodeByUID("ub"); ok {
		t.Error("uid lookup still present")
	}
	s := g.Stats()
	if s.Nodes != 2 {
		t.Errorf("nodes = %d", s.Nodes)
	}
	// a→b and b→c are gone; c→a survives.
	if s.Edges != 1 {
		t.Errorf("edges = %d, want 1", s.Edges)
	}
	if len(g.Edges(c)) != 1 || g.Edges(c)[0].Target != a {
		t.Errorf("surviving edges = %v", g.Edges(c))
	}
}

func TestNodes_InsertionOrder(t *testing.T) {
	g := New()
	g.AddNode(Node{FullName: "First"})
	g.AddNode(Node{FullName: "Second"})
	g.AddNode(Node{FullName: "Third"})
	names := []string{}
	for _, n := range g.Nodes() {
		names = append(names, n.FullName)
	}
	if names[0] != "First" || names[1] != "Second" || names[2] != "Third" {
		t.Errorf("order = %v", names)
	}
}
