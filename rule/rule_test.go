package rule

import (
	"testing"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/token"
)

func TestMatchAtAnchorsAtPosition(t *testing.T) {
	r := New(`[a-z]+`, TokenSpec{}, "", "", false)
	text, _, ok := r.MatchAt("  hello", 2)
	if !ok {
		t.Fatal("expected a match at position 2")
	}
	if text != "hello" {
		t.Fatalf("matched text = %q, want hello", text)
	}
	// A match that doesn't start exactly at pos must fail - MatchAt is not
	// "search from pos onward", it's "match anchored at pos."
	if _, _, ok := r.MatchAt("  hello", 0); ok {
		t.Fatal("expected no match at position 0 (leading spaces aren't [a-z]+)")
	}
}

func TestMatchAtCapturesNamedGroups(t *testing.T) {
	r := New(`\[color=(?P<color>[a-z]+)\]`, TokenSpec{}, "", "", false)
	_, groups, ok := r.MatchAt("[color=red]x", 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if groups["color"] != "red" {
		t.Fatalf("groups[color] = %q, want red", groups["color"])
	}
}

// TestBygroups is scenario S4 from spec.md section 8: a splitter rule
// over named capture groups yields one token per name.
func TestBygroups(t *testing.T) {
	split := Bygroups("color")
	out := split(map[string]string{"color": "red"})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	tok := out[0].Token()
	if tok.Type != "color" || tok.ValueOr("") != "red" {
		t.Fatalf("got %+v, want type=color value=red", tok)
	}
}

func TestBygroupsSkipsMissingNames(t *testing.T) {
	split := Bygroups("a", "b")
	out := split(map[string]string{"a": "x"})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (missing group b should be skipped)", len(out))
	}
}

func TestTokenSpecKinds(t *testing.T) {
	if !(TokenSpec{Fixed: "x"}).HasFixed() {
		t.Fatal("expected HasFixed")
	}
	if !(TokenSpec{Split: Bygroups("a")}).HasSplit() {
		t.Fatal("expected HasSplit")
	}
	if !(TokenSpec{}).IsNone() {
		t.Fatal("zero value TokenSpec should be IsNone")
	}
}

func TestRawDirectiveParseConsumesAndReturnsText(t *testing.T) {
	value := "hello"
	s, err := token.FromTuples([]token.Tuple{{Type: "raw", Value: &value}})
	if err != nil {
		t.Fatalf("FromTuples: %v", err)
	}
	d := &RawDirective{Name: "raw"}
	n, err := d.Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	txt, ok := n.(*ast.Text)
	if !ok {
		t.Fatalf("Parse returned %T, want *ast.Text", n)
	}
	if txt.Value != "hello" {
		t.Fatalf("Value = %q, want hello", txt.Value)
	}
	if !s.Eof() {
		t.Fatal("RawDirective.Parse must consume its token")
	}
}

func TestRawDirectiveName(t *testing.T) {
	if (&RawDirective{}).RawName() != "raw" {
		t.Fatal("zero-value RawDirective should default its name to \"raw\"")
	}
	if (&RawDirective{Name: "text"}).RawName() != "text" {
		t.Fatal("RawDirective should honor a custom name")
	}
}
