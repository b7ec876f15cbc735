// Package lexer implements the context-stack tokenizer: C4, the
// algorithmic heart of the toolkit. It is deliberately synchronous and
// pull-based rather than the producer/consumer goroutine style used
// elsewhere in this codebase's ancestry - see the design notes on Lexer
// for why.
package lexer

import (
	"unicode/utf8"

	"github.com/chrisgrebs/dmlt/dctx"
	"github.com/chrisgrebs/dmlt/dmlterr"
	"github.com/chrisgrebs/dmlt/rule"
	"github.com/chrisgrebs/dmlt/token"
)

// stackSentinel seeds the context stack so equality/removal checks never
// operate on a genuinely empty slice.
const stackSentinel = ""

type binding struct {
	rule      *rule.Rule
	directive rule.Directive
}

// Lexer drives an ordered rule table over an input string, maintaining a
// nesting stack of open context names and synthesizing begin/end marker
// tokens around them. Unlike a goroutine-fed channel producer, Next is a
// plain synchronous method: spec.md's concurrency model for this
// component is explicitly single-threaded, so there is no producer
// goroutine to feed a channel here.
type Lexer struct {
	input string
	pos   int
	end   int

	escaped    bool
	textBuffer []byte
	stack      []string

	rules []binding

	rawType      string
	rawDirective rule.Directive

	ctx *dctx.Context

	pending  []token.Tuple
	finished bool

	// pendingOneLeave (and its companions) carry a standalone one=true
	// rule's deferred end marker across the call from applyTransition into
	// emitDirectToken, so the splitter/fixed token it emits lands between
	// the synthetic begin and end markers.
	pendingOneLeave     string
	pendingOneDirective rule.Directive
	pendingOneMatch     string
}

// New returns a Lexer ready to tokenize input. rawType/rawDirective are
// the reserved raw-text token type and the directive that owns it;
// directives supplies every other directive in declaration order (its
// Rules() are flattened into the lexer's rule table in that order, per
// the first-match-wins ordering contract).
func New(input, rawType string, rawDirective rule.Directive, directives []rule.Directive, ctx *dctx.Context) *Lexer {
	l := &Lexer{
		input:        input,
		end:          len(input),
		stack:        []string{stackSentinel},
		rawType:      rawType,
		rawDirective: rawDirective,
		ctx:          ctx,
	}
	for _, d := range directives {
		for _, r := range d.Rules() {
			l.rules = append(l.rules, binding{rule: r, directive: d})
		}
	}
	return l
}

func (l *Lexer) beginSuffix() string {
	if l.ctx != nil && l.ctx.Machine != nil {
		return l.ctx.Machine.BeginSuffix()
	}
	return "_begin"
}

func (l *Lexer) endSuffix() string {
	if l.ctx != nil && l.ctx.Machine != nil {
		return l.ctx.Machine.EndSuffix()
	}
	return "_end"
}

func (l *Lexer) escapeEnabled() bool {
	return l.ctx != nil && l.ctx.EscapeEnabled
}

func (l *Lexer) escapeChar() rune {
	if l.ctx != nil && l.ctx.Machine != nil {
		if c := l.ctx.Machine.EscapeCharacter(); c != 0 {
			return c
		}
	}
	return '\\'
}

func (l *Lexer) restrictive() bool {
	return l.ctx != nil && l.ctx.Machine != nil && l.ctx.Machine.RestrictiveMode()
}

// Next returns the next pending tuple, draining one scan step's worth of
// emissions (enter/leave markers, splitter sub-tokens, the flushed raw
// buffer) before reporting ok=false at true end of stream.
func (l *Lexer) Next() (token.Tuple, bool, error) {
	for len(l.pending) == 0 {
		if l.finished {
			return token.Tuple{}, false, nil
		}
		if l.pos >= l.end {
			if err := l.finish(); err != nil {
				return token.Tuple{}, false, err
			}
			l.finished = true
			if len(l.pending) == 0 {
				return token.Tuple{}, false, nil
			}
			break
		}
		if err := l.step(); err != nil {
			return token.Tuple{}, false, err
		}
	}
	tup := l.pending[0]
	l.pending = l.pending[1:]
	return tup, true, nil
}

func (l *Lexer) emit(tup token.Tuple) {
	l.pending = append(l.pending, tup)
}

func (l *Lexer) flush() {
	if len(l.textBuffer) == 0 {
		return
	}
	value := string(l.textBuffer)
	l.textBuffer = l.textBuffer[:0]
	l.emit(token.Tuple{Type: l.rawType, Value: &value, Directive: l.rawDirective})
}

// finish handles the end-of-input tail: a dangling escape is emitted
// literally, then any buffered text is flushed.
func (l *Lexer) finish() error {
	if l.escaped {
		c := string(l.escapeChar())
		l.textBuffer = append(l.textBuffer, c...)
		l.escaped = false
	}
	l.flush()
	return nil
}

// step runs one iteration of the per-position algorithm from spec.md
// section 4.4.
func (l *Lexer) step() error {
	for _, b := range l.rules {
		text, groups, ok := b.rule.MatchAt(l.input, l.pos)
		if !ok {
			continue
		}
		if l.escaped {
			l.textBuffer = append(l.textBuffer, text...)
			l.escaped = false
			l.pos += len(text)
			return nil
		}
		l.flush()
		if err := l.applyTransition(b, text); err != nil {
			return err
		}
		l.emitDirectToken(b, text, groups)
		l.pos += len(text)
		return nil
	}
	return l.noMatch()
}

func (l *Lexer) noMatch() error {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	if !l.escapeEnabled() {
		l.textBuffer = append(l.textBuffer, l.input[l.pos:l.pos+size]...)
		l.pos += size
		return nil
	}
	esc := l.escapeChar()
	if r == esc {
		if l.escaped {
			l.textBuffer = append(l.textBuffer, string(esc)...)
			l.escaped = false
		} else {
			l.escaped = true
		}
		l.pos += size
		return nil
	}
	if l.escaped {
		l.textBuffer = append(l.textBuffer, string(esc)...)
		l.textBuffer = append(l.textBuffer, l.input[l.pos:l.pos+size]...)
		l.escaped = false
		l.pos += size
		return nil
	}
	l.textBuffer = append(l.textBuffer, l.input[l.pos:l.pos+size]...)
	l.pos += size
	return nil
}

// applyTransition implements the enter/leave transition table. It may
// emit begin/end/forced-close markers into l.pending and mutates l.stack.
func (l *Lexer) applyTransition(b binding, matchText string) error {
	r := b.rule
	switch {
	case r.One && !l.onStack(r.Enter):
		if r.Leave != "" {
			l.emit(token.Tuple(token.New(r.Enter+l.beginSuffix(), matchText, b.directive, true)))
		} else if r.Enter != "" {
			l.emit(token.Tuple(token.New(r.Enter, matchText, b.directive, true)))
		}
		// the rule's direct token spec (if any) is emitted by the caller
		// immediately after this returns, interleaving between begin and
		// end exactly as the one=true && leave!=none case requires.
		l.pendingOneLeave = r.Leave
		l.pendingOneDirective = b.directive
		l.pendingOneMatch = matchText
		return nil
	case r.Leave != "" && l.onStack(r.Leave) && !l.restrictive():
		l.removeFirst(r.Leave)
		l.emit(token.Tuple(token.New(r.Leave+l.endSuffix(), matchText, b.directive, true)))
		return nil
	case r.Leave != "" && l.onStack(r.Leave) && l.restrictive():
		idx := l.indexOf(r.Leave)
		for i := 0; i < idx; i++ {
			l.emit(token.Tuple(token.NewNoValue(l.stack[i], true)))
		}
		l.stack = l.stack[idx+1:]
		l.emit(token.Tuple(token.New(r.Leave+l.endSuffix(), matchText, b.directive, true)))
		return nil
	case r.Enter != "" && !r.One:
		l.stack = append([]string{r.Enter}, l.stack...)
		l.emit(token.Tuple(token.New(r.Enter+l.beginSuffix(), matchText, b.directive, false)))
		return nil
	case r.Leave != "":
		return &dmlterr.MissingContext{Context: r.Leave}
	default:
		return nil
	}
}

// emitDirectToken emits the rule's own TokenSpec contribution, and closes
// out a standalone one=true&&leave!=none rule by emitting its end marker
// after the splitter/fixed token, per the interleaving spec.md mandates.
func (l *Lexer) emitDirectToken(b binding, matchText string, groups map[string]string) {
	spec := b.rule.Token
	switch {
	case spec.HasSplit():
		for _, t := range spec.Split(groups) {
			t.Directive = b.directive
			l.emit(t)
		}
	case spec.HasFixed():
		l.emit(token.Tuple{Type: spec.Fixed, Value: strPtr(matchText), Directive: b.directive})
	}
	if l.pendingOneLeave != "" {
		leave, directive, match := l.pendingOneLeave, l.pendingOneDirective, l.pendingOneMatch
		l.pendingOneLeave = ""
		l.pendingOneDirective = nil
		l.pendingOneMatch = ""
		l.emit(token.Tuple(token.New(leave+l.endSuffix(), match, directive, false)))
	}
}

func strPtr(s string) *string { return &s }

func (l *Lexer) onStack(name string) bool {
	if name == "" {
		return false
	}
	return l.indexOf(name) >= 0
}

func (l *Lexer) indexOf(name string) int {
	for i, n := range l.stack {
		if n == name {
			return i
		}
	}
	return -1
}

func (l *Lexer) removeFirst(name string) {
	idx := l.indexOf(name)
	if idx < 0 {
		return
	}
	l.stack = append(l.stack[:idx], l.stack[idx+1:]...)
}
