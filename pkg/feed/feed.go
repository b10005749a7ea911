// Package feed renders article records as RSS 2.0, Google News sitemap and
// image sitemap documents. Renderers are pure: the same input and "now"
// always produce the same bytes.
package feed

import (
	"bytes"
	"fmt"
	"slices"
	"text/template"
	"time"

	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/textutil"
)

var funcs = template.FuncMap{
	"xml": textutil.EscapeXML,
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// SortByPublished returns a copy of articles ordered newest first. Articles
// without a published date keep their relative order and go last.
func SortByPublished(articles []domain.Article) []domain.Article {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(a, b domain.Article) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return 0
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		default:
			return b.PublishedAt.Compare(*a.PublishedAt)
		}
	})
	return sorted
}

func formatRFC3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
