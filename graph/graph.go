// Package graph maintains the reference graph between declarations and
// derives a deterministic evaluation order from it.
package graph

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/decl/decl/lang"
)

// A Graph holds one node per declaration and one directed line per
// reference between two declarations. Edges point from the referenced
// declaration to the one referencing it, so a topological order lists
// dependencies before their dependents.
//
// The Graph should be created with New().
type Graph struct {
	*multi.DirectedGraph
	decls map[lang.Addr]*declNode
}

// New creates a new graph.
func New() *Graph {
	return &Graph{
		DirectedGraph: multi.NewDirectedGraph(),
		decls:         make(map[lang.Addr]*declNode),
	}
}

type declNode struct {
	graph.Node
	addr lang.Addr
}

// DOTID names the node in DOT output.
func (n *declNode) DOTID() string { return n.addr.String() }

type refLine struct {
	graph.Line
	ref *lang.Reference
}

// AddDecl adds a declaration node. Adding the same address twice is a
// no-op, so callers can register referenced declarations lazily.
func (g *Graph) AddDecl(addr lang.Addr) {
	if _, ok := g.decls[addr]; ok {
		return
	}
	n := &declNode{
		Node: g.NewNode(),
		addr: addr,
	}
	g.AddNode(n)
	g.decls[addr] = n
}

// HasDecl reports whether the address has been added.
func (g *Graph) HasDecl(addr lang.Addr) bool {
	_, ok := g.decls[addr]
	return ok
}

// AddReference records that the declaration at referrer uses the
// declaration at subject. Both endpoints must have been added already.
//
// A self-reference is rejected. It is the smallest possible cycle and the
// underlying graph cannot represent it.
func (g *Graph) AddReference(referrer, subject lang.Addr, ref *lang.Reference) error {
	from, ok := g.decls[subject]
	if !ok {
		return errors.Errorf("graph: reference subject %s not declared", subject)
	}
	to, ok := g.decls[referrer]
	if !ok {
		return errors.Errorf("graph: referrer %s not declared", referrer)
	}
	if referrer == subject {
		return errors.Errorf("graph: %s refers to itself", referrer)
	}
	g.SetLine(&refLine{
		Line: g.NewLine(from, to),
		ref:  ref,
	})
	return nil
}

// Decls returns every declared address, sorted by string form.
func (g *Graph) Decls() []lang.Addr {
	addrs := make([]lang.Addr, 0, len(g.decls))
	for addr := range g.decls {
		addrs = append(addrs, addr)
	}
	sortAddrs(addrs)
	return addrs
}

// Dependencies returns the addresses the given declaration refers to,
// sorted by string form.
func (g *Graph) Dependencies(addr lang.Addr) []lang.Addr {
	n, ok := g.decls[addr]
	if !ok {
		return nil
	}
	var addrs []lang.Addr
	it := g.To(n.ID())
	for it.Next() {
		addrs = append(addrs, it.Node().(*declNode).addr)
	}
	sortAddrs(addrs)
	return addrs
}

// Dependents returns the addresses that refer to the given declaration,
// sorted by string form.
func (g *Graph) Dependents(addr lang.Addr) []lang.Addr {
	n, ok := g.decls[addr]
	if !ok {
		return nil
	}
	var addrs []lang.Addr
	it := g.From(n.ID())
	for it.Next() {
		addrs = append(addrs, it.Node().(*declNode).addr)
	}
	sortAddrs(addrs)
	return addrs
}

// References returns the recorded references from referrer to subject, in
// insertion order.
func (g *Graph) References(referrer, subject lang.Addr) []*lang.Reference {
	from, ok := g.decls[subject]
	if !ok {
		return nil
	}
	to, ok := g.decls[referrer]
	if !ok {
		return nil
	}
	var refs []*lang.Reference
	if e, ok := g.Edge(from.ID(), to.ID()).(multi.Edge); ok {
		for e.Lines.Next() {
			l, ok := e.Lines.Line().(*refLine)
			if !ok || l.ref == nil {
				continue
			}
			refs = append(refs, l.ref)
		}
	}
	return refs
}

// A Cycle is a set of declarations that refer to each other in a loop,
// sorted by address for stable reporting.
type Cycle []lang.Addr

// TopoOrder returns the declarations in dependency order: every
// declaration appears after everything it refers to. Ties are broken by
// address so the order is fully deterministic.
//
// When the graph contains cycles, the members of each cycle are returned
// instead and the order is nil.
func (g *Graph) TopoOrder() ([]lang.Addr, []Cycle) {
	sorted, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return nodes[i].(*declNode).addr.String() < nodes[j].(*declNode).addr.String()
		})
	})
	if err != nil {
		unorderable, ok := err.(topo.Unorderable)
		if !ok {
			// SortStabilized only fails with Unorderable.
			return nil, []Cycle{}
		}
		cycles := make([]Cycle, 0, len(unorderable))
		for _, component := range unorderable {
			cycle := make(Cycle, 0, len(component))
			for _, n := range component {
				cycle = append(cycle, n.(*declNode).addr)
			}
			sortAddrs(cycle)
			cycles = append(cycles, cycle)
		}
		sort.Slice(cycles, func(i, j int) bool {
			return cycles[i][0].String() < cycles[j][0].String()
		})
		return nil, cycles
	}

	addrs := make([]lang.Addr, 0, len(sorted))
	for _, n := range sorted {
		addrs = append(addrs, n.(*declNode).addr)
	}
	return addrs, nil
}

// DOT renders the graph in Graphviz DOT format.
func (g *Graph) DOT(name string) ([]byte, error) {
	b, err := dot.MarshalMulti(g, name, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode graph")
	}
	return b, nil
}

func sortAddrs(addrs []lang.Addr) {
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
}
