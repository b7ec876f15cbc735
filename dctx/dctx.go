// Package dctx holds the small pieces that directive, lexer, parser and
// event code all need a reference to, without any of them importing the
// root dmlt package - breaking what would otherwise be an import cycle
// (dmlt depends on rule/lexer/parser/event; those packages need a handle
// back to the machine that owns them).
package dctx

import "log"

// Machine is the minimal surface a directive, filter or rule sees of the
// owning markup machine: escape handling, begin/end token-type suffixes,
// and an optional logger. The root dmlt
// package's Machine type satisfies this.
type Machine interface {
	EscapeCharacter() rune
	RestrictiveMode() bool
	BeginSuffix() string
	EndSuffix() string
	Logger() *log.Logger
}

// Context is the small struct carried through parsing and filter
// callbacks: a back-reference to the owning machine plus whether escape
// handling is enabled for this particular tokenize/parse call (a per-call
// setting; the Machine interface carries no escape-enabled flag).
type Context struct {
	Machine       Machine
	EscapeEnabled bool
}

// New returns a Context for the given machine and escape setting.
func New(m Machine, escapeEnabled bool) *Context {
	return &Context{Machine: m, EscapeEnabled: escapeEnabled}
}
