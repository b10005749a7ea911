// Package textutil holds the small string helpers shared by the scraper and
// the feed renderers.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to text shortened by TruncateWords.
const Ellipsis = "…"

var (
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	xmlUnescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// EscapeXML replaces the five XML special characters with their entities.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// UnescapeXML reverses EscapeXML.
func UnescapeXML(s string) string {
	return xmlUnescaper.Replace(s)
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims the ends.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateWords shortens s to at most maxLen runes, ellipsis included.
// The cut is made at the last space that fits so no word is split. A
// single word longer than maxLen is the only case that gets cut mid-word.
func TruncateWords(s string, maxLen int) string {
	s = NormalizeSpace(s)
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	budget := maxLen - utf8.RuneCountInString(Ellipsis)
	if budget <= 0 {
		return string([]rune(Ellipsis)[:maxLen])
	}

	runes := []rune(s)
	// runes[budget] is the first rune that does not fit; if it is a space the
	// whole prefix is made of complete words.
	if runes[budget] == ' ' {
		return strings.TrimRight(string(runes[:budget]), " ,;:.-") + Ellipsis
	}

	head := string(runes[:budget])
	cut := strings.LastIndex(head, " ")
	if cut <= 0 {
		return head + Ellipsis
	}

	return strings.TrimRight(head[:cut], " ,;:.-") + Ellipsis
}
