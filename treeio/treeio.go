// Package treeio implements the tree-serialization auxiliary described in
// spec.md section 6: a compatibility surface used by caches, outside the
// core hot path, for dumping a parsed document tree to a byte string and
// loading it back.
package treeio

import (
	"bytes"
	"encoding/gob"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dmlterr"
)

func init() {
	// The core's own node types must round-trip through the dynamic
	// branch's gob payload without a caller having to remember to
	// register them; a concrete dialect registers its own node types the
	// same way in its own init().
	gob.Register(&ast.Text{})
	gob.Register(&ast.Linebreak{})
}

// Item is one element of a dynamic dump's mixed list (spec.md section 6:
// "a tree containing dynamic nodes"): either a literal text segment or an
// opaque node that couldn't be flattened to text.
type Item struct {
	Text   string
	Node   ast.Node
	IsText bool
}

type payload struct {
	Format string
	Items  []Item
}

// Dump serializes doc for format. When every leaf beneath doc is a text
// node, it produces the pure-text form '!' + format + '\x00' + utf8-text;
// otherwise it produces the dynamic form '@' + gob-encoded(format,
// mixed-list), mirroring dmlt.utils.dump_tree's two-byte discriminator
// exactly (spec.md section 6 calls this choice "a concrete compatibility
// surface" to be preserved).
func Dump(doc ast.Node, format string) ([]byte, error) {
	if doc == nil {
		return nil, &dmlterr.Programming{Detail: "treeio.Dump: nil document node"}
	}
	if isPureText(doc) {
		var buf bytes.Buffer
		buf.WriteByte('!')
		buf.WriteString(format)
		buf.WriteByte(0)
		buf.WriteString(doc.Text())
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('@')
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(payload{Format: format, Items: collectItems(doc)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load inspects b's leading discriminator byte and returns either the
// pure-text instructions (a single-element slice holding the recovered
// text) with node nil, or a reconstructed container node with
// instructions nil - mirroring load_tree's three-way
// (instructions_or_none, node_or_none, format_or_none) return.
func Load(b []byte) (instructions []string, node ast.Node, format string, err error) {
	if len(b) == 0 {
		return nil, nil, "", &dmlterr.Programming{Detail: "treeio.Load: empty input"}
	}
	switch b[0] {
	case '!':
		rest := b[1:]
		sep := bytes.IndexByte(rest, 0)
		if sep < 0 {
			return nil, nil, "", &dmlterr.Programming{Detail: "treeio.Load: malformed pure-text dump, missing NUL separator"}
		}
		format = string(rest[:sep])
		text := string(rest[sep+1:])
		return []string{text}, nil, format, nil
	case '@':
		dec := gob.NewDecoder(bytes.NewReader(b[1:]))
		var p payload
		if decErr := dec.Decode(&p); decErr != nil {
			return nil, nil, "", decErr
		}
		children := make([]ast.Node, 0, len(p.Items))
		for _, it := range p.Items {
			if it.IsText {
				children = append(children, ast.NewText(it.Text))
			} else {
				children = append(children, it.Node)
			}
		}
		return nil, ast.NewContainer(children...), p.Format, nil
	default:
		return nil, nil, "", &dmlterr.Programming{Detail: "treeio.Load: unrecognized discriminator byte"}
	}
}

// isPureText reports whether every leaf beneath n is a text node -
// dump_tree's condition for choosing the cheap '!' form over the
// gob-encoded '@' form.
func isPureText(n ast.Node) bool {
	for leaf := range ast.NewQuery(n).All() {
		if leaf.IsContainer() {
			continue
		}
		if !leaf.IsTextNode() {
			return false
		}
	}
	return true
}

// collectItems flattens doc's direct children into the dynamic dump's
// mixed list: text children become literal segments, everything else is
// kept as an opaque node (the caller must have gob.Register'd its
// concrete type for this to round-trip through Load).
func collectItems(doc ast.Node) []Item {
	children := doc.Children()
	items := make([]Item, 0, len(children))
	for _, c := range children {
		if c.IsTextNode() {
			items = append(items, Item{Text: c.Text(), IsText: true})
		} else {
			items = append(items, Item{Node: c})
		}
	}
	return items
}
