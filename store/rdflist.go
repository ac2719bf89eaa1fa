package store

import (
	"fmt"

	"github.com/cayleygraph/quad"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/nodeadmin/owlstore/vocab"
)

// RDFList accumulates rdf:first and rdf:rest statements as a directed
// graph of cons cells. Cells and links may arrive in any order; a list is
// read back by walking the shortest path from its head to rdf:nil.
type RDFList struct {
	g      *simple.DirectedGraph
	ids    map[string]int64
	names  map[int64]string
	values map[int64]quad.Value
	next   int64
}

func NewRDFList() *RDFList {
	return &RDFList{
		g:      simple.NewDirectedGraph(),
		ids:    make(map[string]int64),
		names:  make(map[int64]string),
		values: make(map[int64]quad.Value),
	}
}

func (l *RDFList) node(v quad.Value) int64 {
	name := nameOf(v)
	if id, ok := l.ids[name]; ok {
		return id
	}
	id := l.next
	l.next++
	l.ids[name] = id
	l.names[id] = name
	l.g.AddNode(simple.Node(id))
	return id
}

// Link records a → b. A cell has at most one successor.
func (l *RDFList) Link(a, b quad.Value) error {
	if nameOf(a) == nameOf(b) {
		return fmt.Errorf("%w: list cell %s links to itself", ErrContractViolation, nameOf(a))
	}
	from, to := l.node(a), l.node(b)
	succ := l.g.From(from)
	for succ.Next() {
		if id := succ.Node().ID(); id != to {
			return fmt.Errorf("%w: list cell %s already continues with %s",
				ErrContractViolation, nameOf(a), l.names[id])
		}
	}
	l.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	return nil
}

// SetValue records the payload of cell n.
func (l *RDFList) SetValue(n, v quad.Value) {
	l.values[l.node(n)] = v
}

// Has reports whether n is a cell of some pending list.
func (l *RDFList) Has(n quad.Value) bool {
	_, ok := l.ids[nameOf(n)]
	return ok
}

// Len returns the number of cells in the graph, rdf:nil included.
func (l *RDFList) Len() int { return l.g.Nodes().Len() }

func (l *RDFList) path(head quad.Value) ([]int64, bool) {
	from, ok := l.ids[nameOf(head)]
	if !ok {
		return nil, false
	}
	end, ok := l.ids[string(vocab.Nil)]
	if !ok {
		return nil, false
	}
	nodes, _ := path.DijkstraFrom(simple.Node(from), l.g).To(end)
	if len(nodes) == 0 {
		return nil, false
	}
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids, true
}

// Ready reports whether the list at head reaches rdf:nil and every cell on
// the way carries a value.
func (l *RDFList) Ready(head quad.Value) bool {
	if nameOf(head) == string(vocab.Nil) {
		return true
	}
	ids, ok := l.path(head)
	if !ok {
		return false
	}
	for _, id := range ids[:len(ids)-1] {
		if _, ok := l.values[id]; !ok {
			return false
		}
	}
	return true
}

func (l *RDFList) remove(id int64) {
	delete(l.ids, l.names[id])
	delete(l.names, id)
	delete(l.values, id)
	l.g.RemoveNode(id)
}

// Collect returns the transformed values of the list at head in list order,
// skipping cells without a value, and removes the walked cells. rdf:nil is
// shared by all lists and stays. An empty list (head is rdf:nil) yields
// nothing. Collecting a list with no path to rdf:nil, including a list that
// was already collected, fails with ErrListIncomplete.
func Collect[T any](l *RDFList, head quad.Value, transform func(quad.Value) (T, error)) ([]T, error) {
	if nameOf(head) == string(vocab.Nil) {
		return nil, nil
	}
	ids, ok := l.path(head)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrListIncomplete, nameOf(head))
	}
	cells := ids[:len(ids)-1]

	out := make([]T, 0, len(cells))
	for _, id := range cells {
		v, ok := l.values[id]
		if !ok {
			continue
		}
		item, err := transform(v)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	for _, id := range cells {
		l.remove(id)
	}
	return out, nil
}
