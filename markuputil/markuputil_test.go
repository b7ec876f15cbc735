package markuputil

import "testing"

func TestEscapeUnescapeHTMLRoundTrip(t *testing.T) {
	raw := `<b>"quoted" & 'apos'</b>`
	escaped := EscapeHTML(raw)
	if escaped == raw {
		t.Fatal("expected EscapeHTML to change special characters")
	}
	if got := UnescapeHTML(escaped); got != raw {
		t.Fatalf("UnescapeHTML(EscapeHTML(s)) = %q, want %q", got, raw)
	}
}

func TestBuildTagNormalElement(t *testing.T) {
	open, close := BuildTag("a", map[string]string{"href": "/x", "class": "btn"})
	if want := `<a class="btn" href="/x">`; open != want {
		t.Fatalf("open = %q, want %q", open, want)
	}
	if close != "</a>" {
		t.Fatalf("close = %q, want </a>", close)
	}
}

func TestBuildTagEmptyElement(t *testing.T) {
	open, close := BuildTag("br", nil)
	if want := "<br />"; open != want {
		t.Fatalf("open = %q, want %q", open, want)
	}
	if close != "" {
		t.Fatalf("close = %q, want empty string for a void element", close)
	}
}

func TestBuildTagEscapesAttributeValues(t *testing.T) {
	open, _ := BuildTag("img", map[string]string{"alt": `"quote"`})
	if want := `<img alt="&#34;quote&#34;" />`; open != want {
		t.Fatalf("open = %q, want %q", open, want)
	}
}

func TestBuildTagDeterministicOrdering(t *testing.T) {
	attrs := map[string]string{"z": "1", "a": "2", "m": "3"}
	first, _ := BuildTag("div", attrs)
	for i := 0; i < 5; i++ {
		again, _ := BuildTag("div", attrs)
		if again != first {
			t.Fatalf("BuildTag attribute order is not deterministic: %q vs %q", first, again)
		}
	}
	if want := `<div a="2" m="3" z="1">`; first != want {
		t.Fatalf("first = %q, want %q", first, want)
	}
}

func TestStripTags(t *testing.T) {
	in := `<p>hello <b>bold</b> <img src="x.png"/> world</p>`
	want := "hello bold  world"
	if got := StripTags(in); got != want {
		t.Fatalf("StripTags = %q, want %q", got, want)
	}
}

func TestStripTagsNoTags(t *testing.T) {
	in := "plain text, no markup"
	if got := StripTags(in); got != in {
		t.Fatalf("StripTags = %q, want unchanged %q", got, in)
	}
}
