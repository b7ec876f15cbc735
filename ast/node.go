// Package ast defines the abstract node model produced by a parse: the
// Node interface and its capability predicates, a basic Container and Text
// implementation, and the tree-query traversal helper.
package ast

import "iter"

// Node is the abstract unit of a parsed document. Concrete dialects supply
// their own node types; the core only relies on this interface and the
// minimal Text/Container implementations below (the ones the built-in raw
// directive and the document-building loop need).
type Node interface {
	// IsTextNode reports whether this node represents literal text.
	IsTextNode() bool
	// IsContainer reports whether this node owns child nodes.
	IsContainer() bool
	// IsRaw reports whether this node came from the raw/text directive.
	IsRaw() bool
	// IsBlockTag reports whether this node renders as a block-level element.
	IsBlockTag() bool
	// IsLinebreakNode reports whether this node represents a forced line break.
	IsLinebreakNode() bool
	// IsDocument reports whether this is the document root.
	IsDocument() bool
	// AllowsParagraphs reports whether paragraph-wrapping filters may wrap
	// this node's children.
	AllowsParagraphs() bool
	// Text returns the node's textual content; containers concatenate their
	// children's Text recursively.
	Text() string
	// Children returns the node's direct children, or nil for a leaf.
	Children() []Node
}

// Renderable is the optional contract between a node and a renderer: given
// an output format name, it yields the pieces of that node's rendering in
// order. Concrete dialects implement this; the core never requires it.
type Renderable interface {
	Prepare(format string) iter.Seq[string]
}

// BaseNode provides false/empty defaults for every Node predicate so
// concrete node types only need to override what applies to them.
type BaseNode struct{}

func (BaseNode) IsTextNode() bool       { return false }
func (BaseNode) IsContainer() bool      { return false }
func (BaseNode) IsRaw() bool            { return false }
func (BaseNode) IsBlockTag() bool       { return false }
func (BaseNode) IsLinebreakNode() bool  { return false }
func (BaseNode) IsDocument() bool       { return false }
func (BaseNode) AllowsParagraphs() bool { return false }
func (BaseNode) Children() []Node       { return nil }

// Container is an ordered, exclusively-owning sequence of child nodes. It
// is meant to be embedded by concrete container node types (including a
// dialect's document node).
type Container struct {
	BaseNode
	Nodes []Node
}

// NewContainer returns a Container holding the given children.
func NewContainer(children ...Node) *Container {
	return &Container{Nodes: children}
}

func (c *Container) IsContainer() bool { return true }

func (c *Container) Children() []Node { return c.Nodes }

func (c *Container) Append(n Node) {
	c.Nodes = append(c.Nodes, n)
}

func (c *Container) Text() string {
	var out []byte
	for _, child := range c.Nodes {
		out = append(out, child.Text()...)
	}
	return string(out)
}

// Text is a leaf node holding literal text. It is what the built-in raw
// directive returns for unmatched input.
type Text struct {
	BaseNode
	Value string
}

// NewText returns a Text node wrapping s.
func NewText(s string) *Text {
	return &Text{Value: s}
}

func (t *Text) IsTextNode() bool { return true }
func (t *Text) IsRaw() bool      { return true }
func (t *Text) Text() string     { return t.Value }

// Linebreak is a leaf node representing a forced line break.
type Linebreak struct {
	BaseNode
}

func (l *Linebreak) IsLinebreakNode() bool { return true }
func (l *Linebreak) Text() string          { return "" }
