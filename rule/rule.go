// Package rule defines the compiled pattern rules a directive contributes
// to the lexer, and the Directive contract the parser dispatches to.
package rule

import (
	"regexp"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dctx"
	"github.com/chrisgrebs/dmlt/token"
)

// SplitterFunc turns a regex match's named groups into a sequence of
// tuples - the "bygroups" case from spec.md section 3.2(b): one token per
// named capture group, in declaration order.
type SplitterFunc func(groups map[string]string) []token.Tuple

// TokenSpec is the tagged union from spec.md section 3.2: a rule either
// emits a fixed token type, splits its match into several tuples, or
// emits no direct token at all (relying purely on its enter/leave
// markers). Exactly one of Fixed/Split is meaningful at a time; the zero
// value means "no direct token."
type TokenSpec struct {
	Fixed string
	Split SplitterFunc
}

// HasFixed reports whether this spec carries a fixed token type.
func (t TokenSpec) HasFixed() bool { return t.Fixed != "" }

// HasSplit reports whether this spec carries a splitter.
func (t TokenSpec) HasSplit() bool { return t.Split != nil }

// IsNone reports whether this spec emits no direct token.
func (t TokenSpec) IsNone() bool { return t.Fixed == "" && t.Split == nil }

// Bygroups returns a SplitterFunc zipping the rule's named capture groups
// against names, in the given order, into one token.Tuple per name - the
// Go equivalent of the Python bygroups helper referenced in spec.md
// section 3.2(b).
func Bygroups(names ...string) SplitterFunc {
	return func(groups map[string]string) []token.Tuple {
		out := make([]token.Tuple, 0, len(names))
		for _, name := range names {
			val, ok := groups[name]
			if !ok {
				continue
			}
			v := val
			out = append(out, token.Tuple{Type: name, Value: &v})
		}
		return out
	}
}

// Rule is an immutable compiled pattern rule: spec.md section 3.2's
// (pattern, token, enter, leave, one) record. Pattern is pre-compiled and
// matched via MatchAt, which runs it over input[pos:] (a substring view,
// not a copy) and accepts only a match that starts at pos.
type Rule struct {
	Pattern *regexp.Regexp
	Token   TokenSpec
	Enter   string // "" means none
	Leave   string // "" means none
	One     bool
}

// New compiles pattern and returns a Rule. It panics on a bad pattern,
// matching the teacher's template-parsing convention of failing fast on
// malformed input supplied by the program author rather than the end
// user (directive authors write these patterns at init time).
func New(pattern string, spec TokenSpec, enter, leave string, one bool) *Rule {
	return &Rule{
		Pattern: regexp.MustCompile(pattern),
		Token:   spec,
		Enter:   enter,
		Leave:   leave,
		One:     one,
	}
}

// MatchAt anchors r's pattern at pos in input: it matches only if the
// match begins exactly at pos (the `\A`-at-offset semantics spec.md
// section 4.3 requires from match_at). groups holds every named capture
// group's text, for use by a Split TokenSpec.
func (r *Rule) MatchAt(input string, pos int) (matchedText string, groups map[string]string, ok bool) {
	loc := r.Pattern.FindStringSubmatchIndex(input[pos:])
	if loc == nil || loc[0] != 0 {
		return "", nil, false
	}
	matchedText = input[pos : pos+loc[1]]
	names := r.Pattern.SubexpNames()
	groups = make(map[string]string, len(names))
	for i, name := range names {
		if name == "" {
			continue
		}
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 || end < 0 {
			continue
		}
		groups[name] = input[pos+start : pos+end]
	}
	return matchedText, groups, true
}

// Directive is a rule-owning handler: it contributes rules to the lexer
// and knows how to build a node once the parser's dispatch loop reaches
// one of its tokens. Spec.md section 3.3.
type Directive interface {
	Rules() []*Rule
	Parse(s *token.Stream) (ast.Node, error)
}

// EOCDirective is the optional extension a Directive may additionally
// implement: recovery from a forced-close token (end_of_context=true),
// spec.md section 3.3's optional parse_eoc.
type EOCDirective interface {
	Directive
	ParseEOC(s *token.Stream) (ast.Node, error)
}

// DirectiveFactory builds a fresh Directive instance scoped to one
// tokenize call, per spec.md section 3.7 ("directive instances are
// constructed fresh per tokenize call").
type DirectiveFactory func(ctx *dctx.Context) Directive

// RawNamer is an optional extension a define-raw-directive listener's
// produced instance may implement to pick the raw token's type name
// (spec.md section 3.3: "conventionally raw or text"). When a directive
// doesn't implement it, the machine defaults the name to "raw".
type RawNamer interface {
	RawName() string
}

// RawDirective is the built-in fallback directive (spec.md section 3.3):
// it owns no rules, and its Parse simply takes the stream's current
// token value as literal text and advances past it.
type RawDirective struct {
	Name string
}

// NewRawDirective is a DirectiveFactory for the built-in raw directive,
// named "raw".
func NewRawDirective(*dctx.Context) Directive {
	return &RawDirective{Name: "raw"}
}

func (d *RawDirective) Rules() []*Rule { return nil }

func (d *RawDirective) Parse(s *token.Stream) (ast.Node, error) {
	cur := s.Current()
	if _, err := s.Next(); err != nil {
		return nil, err
	}
	return ast.NewText(cur.ValueOr("")), nil
}

func (d *RawDirective) RawName() string {
	if d.Name == "" {
		return "raw"
	}
	return d.Name
}
