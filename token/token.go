// Package token defines the immutable Token record and the mutable
// TokenStream that the lexer feeds and the parser consumes.
package token

import "reflect"

// Directive is the token package's view of a rule directive: an opaque
// back-reference. It is declared as an empty interface (rather than
// importing the rule package) because rule.Directive's own methods take a
// *Stream as an argument - importing it here would create an import cycle.
// Token.Equal compares Directive values through directiveEqual rather than
// a bare `!=`, since an arbitrary concrete directive type is not guaranteed
// to be comparable.
type Directive interface{}

// Token is an immutable lexical unit. Value is a pointer so that the
// synthetic stack-closing tokens described in spec.md section 4.4 (whose
// value is "none") are distinguishable from a token whose matched text
// happens to be empty.
type Token struct {
	Type         string
	Value        *string
	Directive    Directive
	EndOfContext bool
}

// New returns a Token with a non-nil value.
func New(typ, value string, d Directive, endOfContext bool) Token {
	return Token{Type: typ, Value: &value, Directive: d, EndOfContext: endOfContext}
}

// NewNoValue returns a Token whose Value is nil - used for the synthetic
// forced-close tokens emitted while unwinding the stack in restrictive mode.
func NewNoValue(typ string, endOfContext bool) Token {
	return Token{Type: typ, EndOfContext: endOfContext}
}

// EOF is the sentinel token a stream reports once its source is exhausted.
var EOF = Token{Type: "eof"}

// HasValue reports whether this token carries a matched-text value.
func (t Token) HasValue() bool {
	return t.Value != nil
}

// ValueOr returns the token's value, or def if it has none.
func (t Token) ValueOr(def string) string {
	if t.Value == nil {
		return def
	}
	return *t.Value
}

// Equal reports whether two tokens are structurally identical across all
// four fields. Go's static typing already rejects comparisons against any
// non-Token value at compile time, satisfying spec.md's "comparing to any
// other kind fails with a type error" clause without needing a runtime
// check.
func (t Token) Equal(other Token) bool {
	if t.Type != other.Type || t.EndOfContext != other.EndOfContext {
		return false
	}
	if !directiveEqual(t.Directive, other.Directive) {
		return false
	}
	switch {
	case t.Value == nil && other.Value == nil:
		return true
	case t.Value == nil || other.Value == nil:
		return false
	default:
		return *t.Value == *other.Value
	}
}

// directiveEqual compares two Directive back-references without risking
// the runtime panic a bare `!=` would raise if a directive's concrete type
// held a non-comparable field (a slice/map/func, e.g. a directive that
// caches its compiled rules directly rather than behind a pointer). Equal
// comparable types use ordinary interface equality; equal non-comparable
// types fall back to a structural comparison, which never panics.
func directiveEqual(a, b Directive) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// Tuple is the wire shape a lexer/source produces: the same four fields as
// Token, laid out for construction before a Directive is necessarily known
// (mirrors the (type, value, directive, end_of_context) tuples the Python
// lexer's generator yields).
type Tuple struct {
	Type         string
	Value        *string
	Directive    Directive
	EndOfContext bool
}

// Token converts a Tuple into a Token.
func (t Tuple) Token() Token {
	return Token{Type: t.Type, Value: t.Value, Directive: t.Directive, EndOfContext: t.EndOfContext}
}
