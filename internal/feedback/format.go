// Package feedback turns the raw coaching text returned by the backend into
// display markup. The input is trusted markup-safe text; nothing is escaped.
package feedback

import (
	"regexp"
	"strings"
)

// headingMarker matches a bold heading span terminated by a newline:
// double-asterisk, non-greedy heading text, double-asterisk, optional
// whitespace, newline. Unbalanced markers simply fail to match and the
// literal asterisks stay in the surrounding body text.
var headingMarker = regexp.MustCompile(`\*\*(.+?)\*\*\s*\n`)

// Format splits raw feedback into alternating body and heading segments.
// Headings become <h2> elements; body segments become <p> elements with
// newlines rendered as <br>.
func Format(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	last := 0
	for _, m := range headingMarker.FindAllStringSubmatchIndex(raw, -1) {
		writeBody(&b, raw[last:m[0]])
		b.WriteString("<h2>")
		b.WriteString(raw[m[2]:m[3]])
		b.WriteString("</h2>")
		last = m[1]
	}
	writeBody(&b, raw[last:])
	return b.String()
}

// writeBody wraps a body segment in a paragraph. After the newline
// replacement, any remaining "period, single space" pair is also broken onto
// its own line. That heuristic is applied unconditionally and will split
// abbreviations like "Mr. Smith"; it is a known limitation of the original
// renderer and is kept as-is.
func writeBody(b *strings.Builder, body string) {
	if body == "" {
		return
	}
	body = strings.ReplaceAll(body, "\n", "<br>")
	body = strings.ReplaceAll(body, ". ", ".<br>")
	b.WriteString("<p>")
	b.WriteString(body)
	b.WriteString("</p>")
}
