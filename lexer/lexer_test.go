package lexer

import (
	"log"
	"testing"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dctx"
	"github.com/chrisgrebs/dmlt/dmlterr"
	"github.com/chrisgrebs/dmlt/rule"
	"github.com/chrisgrebs/dmlt/token"
	"github.com/google/go-cmp/cmp"
)

// fakeMachine is a minimal dctx.Machine stub for lexer tests: it carries
// only what the context-stack algorithm consults (escape character,
// restrictive mode, begin/end suffixes).
type fakeMachine struct {
	escapeChar rune
	restrictive bool
}

func (m *fakeMachine) EscapeCharacter() rune { return m.escapeChar }
func (m *fakeMachine) RestrictiveMode() bool { return m.restrictive }
func (m *fakeMachine) BeginSuffix() string   { return "_begin" }
func (m *fakeMachine) EndSuffix() string     { return "_end" }
func (m *fakeMachine) Logger() *log.Logger   { return nil }

// stubDirective is a no-op rule.Directive wrapping a fixed set of rules,
// enough for the lexer tests (which never reach Parse).
type stubDirective struct {
	name  string
	rules []*rule.Rule
}

func (d *stubDirective) Rules() []*rule.Rule { return d.rules }
func (d *stubDirective) Parse(s *token.Stream) (ast.Node, error) {
	return nil, nil
}

func newCtx(escapeEnabled, restrictive bool) *dctx.Context {
	return dctx.New(&fakeMachine{escapeChar: '\\', restrictive: restrictive}, escapeEnabled)
}

func drain(t *testing.T, l *Lexer) []token.Tuple {
	t.Helper()
	var out []token.Tuple
	for {
		tup, ok, err := l.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, tup)
	}
}

func typesOf(tups []token.Tuple) []string {
	types := make([]string, len(tups))
	for i, tup := range tups {
		types[i] = tup.Type
	}
	return types
}

func assertTypes(t *testing.T, got []token.Tuple, want []string) {
	t.Helper()
	gotTypes := append(typesOf(got), "eof")
	if diff := cmp.Diff(want, gotTypes); diff != "" {
		t.Fatalf("token types mismatch (-want +got):\n%s", diff)
	}
}

func rawDirective() rule.Directive { return &rule.RawDirective{Name: "raw"} }

// TestS1SimplePairedTags is spec.md section 8 scenario S1.
func TestS1SimplePairedTags(t *testing.T) {
	b := &stubDirective{name: "b", rules: []*rule.Rule{
		rule.New(`\[b\]`, rule.TokenSpec{}, "b", "", false),
		rule.New(`\[/b\]`, rule.TokenSpec{}, "", "b", false),
	}}
	l := New("[b]x[/b]", "raw", rawDirective(), []rule.Directive{b}, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"b_begin", "raw", "b_end", "eof"})
	if tups[1].Value == nil || *tups[1].Value != "x" {
		t.Fatalf("raw token value = %v, want x", tups[1].Value)
	}
}

// TestS2EscapedPairedTags is spec.md section 8 scenario S2: the first
// [b] is escaped into literal text, so "b" is never pushed and the
// closing [/b] has no context to leave. In this non-restrictive run the
// lexer's transition table returns MissingContext for it (leave != ""
// and "b" is not on the stack).
func TestS2EscapedPairedTags(t *testing.T) {
	b := &stubDirective{name: "b", rules: []*rule.Rule{
		rule.New(`\[b\]`, rule.TokenSpec{}, "b", "", false),
		rule.New(`\[/b\]`, rule.TokenSpec{}, "", "b", false),
	}}
	l := New(`\[b]x[/b]`, "raw", rawDirective(), []rule.Directive{b}, newCtx(true, false))
	_, _, err := drainExpectingError(t, l)
	var mc *dmlterr.MissingContext
	if err == nil {
		t.Fatal("expected MissingContext: [/b] closes a context that was never opened (escaped [b])")
	}
	if !errorsAs(err, &mc) {
		t.Fatalf("expected *dmlterr.MissingContext, got %T: %v", err, err)
	}
}

func drainExpectingError(t *testing.T, l *Lexer) ([]token.Tuple, bool, error) {
	t.Helper()
	var out []token.Tuple
	for {
		tup, ok, err := l.Next()
		if err != nil {
			return out, false, err
		}
		if !ok {
			return out, true, nil
		}
		out = append(out, tup)
	}
}

func errorsAs(err error, target **dmlterr.MissingContext) bool {
	if mc, ok := err.(*dmlterr.MissingContext); ok {
		*target = mc
		return true
	}
	return false
}

// TestS3NonRestrictiveOverlapping is spec.md section 8 scenario S3's
// non-restrictive half: "[b][i]x[/b][/i]" removes b from an arbitrary
// (here: innermost-first) stack position without disturbing i.
func TestS3NonRestrictiveOverlapping(t *testing.T) {
	bd := &stubDirective{rules: []*rule.Rule{
		rule.New(`\[b\]`, rule.TokenSpec{}, "b", "", false),
		rule.New(`\[/b\]`, rule.TokenSpec{}, "", "b", false),
	}}
	id := &stubDirective{rules: []*rule.Rule{
		rule.New(`\[i\]`, rule.TokenSpec{}, "i", "", false),
		rule.New(`\[/i\]`, rule.TokenSpec{}, "", "i", false),
	}}
	l := New("[b][i]x[/b][/i]", "raw", rawDirective(), []rule.Directive{bd, id}, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"b_begin", "i_begin", "raw", "b_end", "i_end", "eof"})
}

// TestS3Restrictive is spec.md section 8 scenario S3's restrictive half:
// a synthetic forced-close for "i" precedes b_end, and the trailing
// [/i] then raises MissingContext (i was already popped).
func TestS3Restrictive(t *testing.T) {
	bd := &stubDirective{rules: []*rule.Rule{
		rule.New(`\[b\]`, rule.TokenSpec{}, "b", "", false),
		rule.New(`\[/b\]`, rule.TokenSpec{}, "", "b", false),
	}}
	id := &stubDirective{rules: []*rule.Rule{
		rule.New(`\[i\]`, rule.TokenSpec{}, "i", "", false),
		rule.New(`\[/i\]`, rule.TokenSpec{}, "", "i", false),
	}}
	l := New("[b][i]x[/b][/i]", "raw", rawDirective(), []rule.Directive{bd, id}, newCtx(false, true))
	tups, _, err := drainExpectingError(t, l)
	if err == nil {
		t.Fatal("expected MissingContext on the trailing [/i]")
	}
	// b_begin, i_begin, raw("x"), then a synthetic forced-close of i
	// (end_of_context=true, directive=nil), then b_end.
	types := typesOf(tups)
	want := []string{"b_begin", "i_begin", "raw", "i", "b_end"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for idx := range want {
		if types[idx] != want[idx] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
	forced := tups[3]
	if forced.Directive != nil {
		t.Fatal("the synthetic forced-close token must carry a nil directive")
	}
	if !forced.EndOfContext {
		t.Fatal("the synthetic forced-close token must have EndOfContext = true")
	}
	if forced.Value != nil {
		t.Fatal("the synthetic forced-close token's value must be nil")
	}
}

// TestS4SplitterTokens is spec.md section 8 scenario S4.
func TestS4SplitterTokens(t *testing.T) {
	colorDirective := &stubDirective{rules: []*rule.Rule{
		rule.New(`\[color=(?P<color>[a-z]+)\]`, rule.TokenSpec{Split: rule.Bygroups("color")}, "color", "", false),
		rule.New(`\[/color\]`, rule.TokenSpec{}, "", "color", false),
	}}
	l := New("[color=red]z[/color]", "raw", rawDirective(), []rule.Directive{colorDirective}, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"color_begin", "color", "raw", "color_end", "eof"})
	if tups[1].Value == nil || *tups[1].Value != "red" {
		t.Fatalf("color token value = %v, want red", tups[1].Value)
	}
}

// TestS5StandaloneOneShotRule is spec.md section 8 scenario S5.
func TestS5StandaloneOneShotRule(t *testing.T) {
	nl := &stubDirective{rules: []*rule.Rule{
		rule.New(`\n`, rule.TokenSpec{}, "nl", "", true),
	}}
	l := New("a\nb", "raw", rawDirective(), []rule.Directive{nl}, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"raw", "nl", "raw", "eof"})
}

// TestOneWithEnterAndLeaveInterleavesSplitter is Design Notes point 4: a
// one=true rule with both enter and leave set emits begin, then the
// splitter's tokens, then end, in that order.
func TestOneWithEnterAndLeaveInterleavesSplitter(t *testing.T) {
	item := &stubDirective{rules: []*rule.Rule{
		rule.New(`\*(?P<bullet>\w+)`, rule.TokenSpec{Split: rule.Bygroups("bullet")}, "item", "item", true),
	}}
	l := New("*foo", "raw", rawDirective(), []rule.Directive{item}, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"item_begin", "bullet", "item_end", "eof"})
}

// TestRoundTripRawOnly is spec.md section 8 property 5: with no
// applicable rules, tokenize yields a single raw token equal to the
// input.
func TestRoundTripRawOnly(t *testing.T) {
	l := New("just some plain text", "raw", rawDirective(), nil, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"raw", "eof"})
	if *tups[0].Value != "just some plain text" {
		t.Fatalf("raw value = %q, want the full input", *tups[0].Value)
	}
}

func TestRoundTripEmptyInput(t *testing.T) {
	l := New("", "raw", rawDirective(), nil, newCtx(false, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"eof"})
}

// TestDanglingEscapeAtEOF: a trailing escape character with nothing after
// it emits a literal escape char rather than erroring.
func TestDanglingEscapeAtEOF(t *testing.T) {
	l := New(`abc\`, "raw", rawDirective(), nil, newCtx(true, false))
	tups := drain(t, l)
	assertTypes(t, tups, []string{"raw", "eof"})
	if *tups[0].Value != `abc\` {
		t.Fatalf("raw value = %q, want abc\\\\", *tups[0].Value)
	}
}

// TestOrderingContractFirstDirectiveWins is spec.md section 4.3: later
// directives never steal a match from an earlier one at the same
// position.
func TestOrderingContractFirstDirectiveWins(t *testing.T) {
	first := &stubDirective{rules: []*rule.Rule{
		rule.New(`x`, rule.TokenSpec{Fixed: "from-first"}, "", "", false),
	}}
	second := &stubDirective{rules: []*rule.Rule{
		rule.New(`x`, rule.TokenSpec{Fixed: "from-second"}, "", "", false),
	}}
	l := New("x", "raw", rawDirective(), []rule.Directive{first, second}, newCtx(false, false))
	tups := drain(t, l)
	if len(tups) != 1 || tups[0].Type != "from-first" {
		t.Fatalf("tups = %v, want a single from-first token", tups)
	}
}
