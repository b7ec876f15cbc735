package ast

import "iter"

// Query is a lazy, read-only view over a sequence of nodes, supporting the
// traversal helpers tree-processing filters rely on.
type Query struct {
	nodes   iter.Seq[Node]
	recurse bool
}

// NewQuery returns the root query over a single node, recursing into
// containers by default.
func NewQuery(root Node) Query {
	return Query{nodes: oneNode(root), recurse: true}
}

func oneNode(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		yield(n)
	}
}

// All walks this query's nodes in document order (pre-order, left-to-right),
// descending into containers when recursion is enabled.
func (q Query) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var walk func(iter.Seq[Node]) bool
		walk = func(seq iter.Seq[Node]) bool {
			for n := range seq {
				if !yield(n) {
					return false
				}
				if q.recurse && n.IsContainer() {
					if !walk(childSeq(n.Children())) {
						return false
					}
				}
			}
			return true
		}
		walk(q.nodes)
	}
}

func childSeq(nodes []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, n := range nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// Children returns a new Query over the direct children of this query's
// nodes, without recursing further.
func (q Query) Children() Query {
	cur := q.nodes
	return Query{
		nodes: func(yield func(Node) bool) {
			for n := range cur {
				for _, c := range n.Children() {
					if !yield(c) {
						return
					}
				}
			}
		},
		recurse: false,
	}
}

// TextNodes returns a Query restricted to nodes whose IsTextNode is true.
func (q Query) TextNodes() Query {
	all := q.All()
	return Query{
		nodes: func(yield func(Node) bool) {
			for n := range all {
				if n.IsTextNode() {
					if !yield(n) {
						return
					}
				}
			}
		},
		recurse: false,
	}
}

// HasAny reports whether this query yields at least one node.
func (q Query) HasAny() bool {
	for range q.nodes {
		return true
	}
	return false
}

// Seq exposes the underlying (possibly already-filtered) node sequence for
// direct range-over-func iteration.
func (q Query) Seq() iter.Seq[Node] {
	return q.nodes
}

// ByType filters q.All() by type assertion to T - the generic free
// function standing in for Python's isinstance-based by_type, since Go
// interface methods cannot carry their own type parameters.
func ByType[T Node](q Query) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range q.All() {
			if t, ok := n.(T); ok {
				if !yield(t) {
					return
				}
			}
		}
	}
}
