// Package dag wraps the commit graph in gonum's simple.DirectedGraph so the
// ingestor (and any holder of its Result.Graph) can ask reachability/ordering
// questions without re-walking go-git. The blame engine does not use it; it
// walks the Store's commit rows.
package dag

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCycle is returned by Validate when the commit graph is not a DAG.
var ErrCycle = errors.New("dag: commit graph contains a cycle")

// Graph is a commit DAG keyed by revision hash. Edges point from a commit to
// each of its parents (child -> parent), matching the direction the blame
// engine's backward walk traverses.
type Graph struct {
	g          *simple.DirectedGraph
	idOf       map[string]int64
	revOf      map[int64]string
	nextID     int64
	parentsOf  map[string][]string
	childrenOf map[string][]string
}

// New returns an empty commit DAG.
func New() *Graph {
	return &Graph{
		g:          simple.NewDirectedGraph(),
		idOf:       make(map[string]int64),
		revOf:      make(map[int64]string),
		parentsOf:  make(map[string][]string),
		childrenOf: make(map[string][]string),
	}
}

func (d *Graph) nodeFor(rev string) int64 {
	if id, ok := d.idOf[rev]; ok {
		return id
	}
	id := d.nextID
	d.nextID++
	d.idOf[rev] = id
	d.revOf[id] = rev
	d.g.AddNode(simple.Node(id))
	return id
}

// AddCommit registers rev and a directed edge to each of parents. Safe to
// call multiple times for the same rev (e.g. once as a child, once as a
// parent of something else); edges are deduplicated by gonum.
func (d *Graph) AddCommit(rev string, parents []string) {
	child := d.nodeFor(rev)
	for _, p := range parents {
		parent := d.nodeFor(p)
		if child == parent {
			continue // never happens from a real repo, guards against bad fixtures
		}
		d.g.SetEdge(simple.Edge{F: simple.Node(child), T: simple.Node(parent)})
	}
	d.parentsOf[rev] = append([]string(nil), parents...)
	for _, p := range parents {
		d.childrenOf[p] = append(d.childrenOf[p], rev)
	}
}

// Parents returns the direct parent revisions recorded for rev.
func (d *Graph) Parents(rev string) []string {
	return d.parentsOf[rev]
}

// Children returns the direct child revisions recorded for rev.
func (d *Graph) Children(rev string) []string {
	return d.childrenOf[rev]
}

// Has reports whether rev was ever added to the graph.
func (d *Graph) Has(rev string) bool {
	_, ok := d.idOf[rev]
	return ok
}

// Len returns the number of distinct commits recorded.
func (d *Graph) Len() int {
	return len(d.idOf)
}

// Validate checks the graph has no cycles, via gonum's Tarjan SCC — any
// strongly connected component with more than one node is a cycle.
func (d *Graph) Validate() error {
	for _, scc := range topo.TarjanSCC(d.g) {
		if len(scc) > 1 {
			return fmt.Errorf("%w: %d commits in one strongly connected component", ErrCycle, len(scc))
		}
	}
	return nil
}

// IsAncestor reports whether ancestor can be reached from rev by following
// child -> parent edges (i.e. ancestor really is an ancestor of rev, or
// rev itself).
func (d *Graph) IsAncestor(rev, ancestor string) bool {
	if rev == ancestor {
		return true
	}
	startID, ok := d.idOf[rev]
	if !ok {
		return false
	}
	targetID, ok := d.idOf[ancestor]
	if !ok {
		return false
	}

	visited := make(map[int64]bool)
	stack := []int64{startID}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		if n == targetID {
			return true
		}
		to := d.g.From(n)
		for to.Next() {
			stack = append(stack, to.Node().ID())
		}
	}
	return false
}

// TopoOrder returns revisions in a topological order such that every
// commit appears after all of its parents (parents-first, root commits
// come first). Returns ErrCycle if the graph isn't a DAG.
func (d *Graph) TopoOrder() ([]string, error) {
	// topo.Sort orders so that for edge u->v, u comes before v; our edges
	// point child->parent, so sorting the reversed graph gives parents-first.
	reversed := simple.NewDirectedGraph()
	nodes := d.g.Nodes()
	for nodes.Next() {
		reversed.AddNode(nodes.Node())
	}
	edges := d.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		reversed.SetEdge(simple.Edge{F: e.To(), T: e.From()})
	}

	sorted, err := topo.Sort(reversed)
	if err != nil {
		var unordered topo.Unorderable
		if errors.As(err, &unordered) {
			return nil, fmt.Errorf("%w: %d nodes could not be ordered", ErrCycle, len(unordered))
		}
		return nil, err
	}

	out := make([]string, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, d.revOf[n.ID()])
	}
	return out, nil
}

// Roots returns every commit with no recorded parents.
func (d *Graph) Roots() []string {
	var roots []string
	for rev, parents := range d.parentsOf {
		if len(parents) == 0 {
			roots = append(roots, rev)
		}
	}
	return roots
}
