package content

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseDate parses a timestamp in any common layout and returns it in UTC.
// Strings without a zone are read as UTC. Unparseable input yields nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil
	}

	t = t.UTC()
	return &t
}

// firstDate returns the first candidate that parses as a date
func firstDate(candidates ...string) *time.Time {
	for _, c := range candidates {
		if t := ParseDate(c); t != nil {
			return t
		}
	}
	return nil
}

// timeElements returns the datetime attribute of every time element in
// document order
func timeElements(doc *goquery.Document) []string {
	return doc.Find("time[datetime]").Map(func(i int, s *goquery.Selection) string {
		return s.AttrOr("datetime", "")
	})
}

// ldBlocks holds the decoded application/ld+json scripts of a page
type ldBlocks []any

func structuredDataBlocks(doc *goquery.Document) ldBlocks {
	var blocks ldBlocks
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		blocks = append(blocks, v)
	})
	return blocks
}

// find returns the first non-empty string value stored under key, walking
// arrays and @graph containers in document order.
func (b ldBlocks) find(key string) string {
	for _, block := range b {
		if v := findLDValue(block, key); v != "" {
			return v
		}
	}
	return ""
}

func findLDValue(node any, key string) string {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			if v := findLDValue(item, key); v != "" {
				return v
			}
		}
	case map[string]any:
		if s, ok := n[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		if graph, ok := n["@graph"]; ok {
			return findLDValue(graph, key)
		}
	}
	return ""
}
