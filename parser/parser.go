// Package parser implements the stream-driven dispatcher (C5): it reads
// tokens off a token.Stream and hands each one back to the directive that
// produced it, assembling the resulting nodes into a tree.
package parser

import (
	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dmlterr"
	"github.com/chrisgrebs/dmlt/rule"
	"github.com/chrisgrebs/dmlt/token"
)

// Dispatch looks up the current token's directive and hands control to
// it: parse_eoc when the token is a forced close and the directive
// implements rule.EOCDirective, otherwise Parse. A non-eof token with no
// directive attached is a programming error - every token a directive
// produces must carry a back-reference to it.
func Dispatch(s *token.Stream) (ast.Node, error) {
	cur := s.Current()
	if cur.Type == "eof" {
		return nil, nil
	}
	if cur.Directive == nil {
		return nil, &dmlterr.Programming{Detail: "token " + cur.Type + " has no directive"}
	}
	d, ok := cur.Directive.(rule.Directive)
	if !ok {
		return nil, &dmlterr.Programming{Detail: "token " + cur.Type + " directive does not implement rule.Directive"}
	}
	if cur.EndOfContext {
		if eoc, ok := d.(rule.EOCDirective); ok {
			return eoc.ParseEOC(s)
		}
	}
	return d.Parse(s)
}

// progressMark lets Build detect whether a Dispatch call actually
// consumed anything, so it can force one Next() when a directive's Parse
// returns (nil, nil) without advancing - spec.md's anti-infinite-loop
// guarantee for no-op directives.
func progressMark(s *token.Stream) token.Token {
	return s.Current()
}

// Build runs the document-building loop: dispatch until eof, collecting
// every non-nil node Dispatch returns.
func Build(s *token.Stream) ([]ast.Node, error) {
	var children []ast.Node
	for s.Current().Type != "eof" {
		before := progressMark(s)
		node, err := Dispatch(s)
		if err != nil {
			return children, err
		}
		if node != nil {
			children = append(children, node)
		} else if s.Current().Equal(before) {
			if _, err := s.Next(); err != nil {
				return children, err
			}
		}
	}
	return children, nil
}

// untilSet normalizes the variadic "until" argument (a single type, or a
// set of types) spec.md describes for parse_child_nodes/filter_stream.
func untilSet(until []string) map[string]bool {
	set := make(map[string]bool, len(until))
	for _, u := range until {
		set[u] = true
	}
	return set
}

// ParseChildNodes dispatches nodes from s until the current token's type
// is in until, never consuming the terminator itself. It halts early on
// eof.
func ParseChildNodes(s *token.Stream, until ...string) ([]ast.Node, error) {
	stop := untilSet(until)
	var children []ast.Node
	for {
		cur := s.Current()
		if cur.Type == "eof" {
			break
		}
		if stop[cur.Type] {
			break
		}
		before := cur
		node, err := Dispatch(s)
		if err != nil {
			return children, err
		}
		if node != nil {
			children = append(children, node)
		} else if s.Current().Equal(before) {
			if _, err := s.Next(); err != nil {
				return children, err
			}
		}
	}
	return children, nil
}

// FilterStream extracts raw string values from s up to a token whose type
// is in until (not consumed), skipping synthetic no-directive tokens when
// popNone is true. It is a recovery helper, used when a directive gives
// up on structured parsing and just wants the literal text back.
func FilterStream(s *token.Stream, popNone bool, until ...string) ([]string, error) {
	stop := untilSet(until)
	var out []string
	for {
		cur := s.Current()
		if cur.Type == "eof" {
			break
		}
		if stop[cur.Type] {
			break
		}
		if popNone && cur.Directive == nil && !cur.HasValue() {
			if _, err := s.Next(); err != nil {
				return out, err
			}
			continue
		}
		if cur.HasValue() {
			out = append(out, cur.ValueOr(""))
		}
		if _, err := s.Next(); err != nil {
			return out, err
		}
	}
	return out, nil
}
