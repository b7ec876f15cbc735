// Package markuputil supplies the HTML-rendering conveniences spec.md
// section 6 describes but deliberately keeps out of the core contract:
// entity escaping, tag building, and tag stripping. A concrete dialect may
// import this package; the core packages (ast, token, rule, lexer, parser,
// event, dmlt) never do.
package markuputil

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// EmptyTags is the exact set from spec.md section 6: HTML elements that
// never carry a closing tag.
var EmptyTags = map[string]bool{
	"br":     true,
	"img":    true,
	"area":   true,
	"hr":     true,
	"param":  true,
	"meta":   true,
	"link":   true,
	"base":   true,
	"input":  true,
	"embed":  true,
	"col":    true,
	"frame":  true,
	"spacer": true,
}

// EscapeHTML escapes s for safe inclusion in HTML text, using the
// standard library's entity table rather than porting the original's
// hand-rolled one (see DESIGN.md).
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// UnescapeHTML reverses EscapeHTML, decoding HTML entities back to their
// literal characters.
func UnescapeHTML(s string) string {
	return html.UnescapeString(s)
}

// BuildTag renders tag's opening and closing tag strings with attrs in
// sorted-key order, so output is deterministic across calls - Go map
// iteration order isn't, unlike Python's original dict-ordered kwargs. A
// tag in EmptyTags gets a self-closing open tag and an empty close tag.
func BuildTag(tag string, attrs map[string]string) (open, close string) {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, k := range sortedKeys(attrs) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteByte('"')
	}
	if EmptyTags[tag] {
		b.WriteString(" />")
		return b.String(), ""
	}
	b.WriteByte('>')
	return b.String(), "</" + tag + ">"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stripRe matches one HTML tag, open or close, the same shape as the
// original's _strip_re.
var stripRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// StripTags removes every HTML tag from s, leaving the text content.
func StripTags(s string) string {
	return stripRe.ReplaceAllString(s, "")
}
