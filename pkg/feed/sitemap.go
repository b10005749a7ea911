package feed

import (
	"time"

	"sitemap-feeds/pkg/domain"

	"github.com/samber/lo"
)

const (
	DefaultNewsWindow = 48 * time.Hour
	// MaxNewsItems is the Google News sitemap entry limit
	MaxNewsItems = 1000
)

// NewsOptions describes the publication listed in the news sitemap
type NewsOptions struct {
	PublicationName string
	Language        string
	Window          time.Duration
}

type newsEntry struct {
	URL             string
	Title           string
	PublicationDate string
}

type newsSitemap struct {
	NewsOptions
	Entries []newsEntry
}

var newsTemplate = mustParse("news sitemap", `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
{{- range .Entries}}
  <url>
    <loc>{{xml .URL}}</loc>
    <news:news>
      <news:publication>
        <news:name>{{xml $.PublicationName}}</news:name>
        <news:language>{{xml $.Language}}</news:language>
      </news:publication>
      <news:publication_date>{{.PublicationDate}}</news:publication_date>
      <news:title>{{xml .Title}}</news:title>
    </news:news>
  </url>
{{- end}}
</urlset>
`)

// InNewsWindow reports whether a was published within window before now.
// Articles without a date, or dated after now, are never in the window.
func InNewsWindow(a domain.Article, now time.Time, window time.Duration) bool {
	if a.PublishedAt == nil {
		return false
	}
	return !a.PublishedAt.Before(now.Add(-window)) && !a.PublishedAt.After(now)
}

// RenderNewsSitemap renders the articles published within the window as a
// Google News sitemap, newest first, capped at MaxNewsItems.
func RenderNewsSitemap(articles []domain.Article, opts NewsOptions, now time.Time) (string, error) {
	if opts.Window <= 0 {
		opts.Window = DefaultNewsWindow
	}

	entries := make([]newsEntry, 0)
	for _, a := range SortByPublished(articles) {
		if len(entries) == MaxNewsItems {
			break
		}
		if !InNewsWindow(a, now, opts.Window) {
			continue
		}
		entries = append(entries, newsEntry{
			URL:             a.URL,
			Title:           a.Title,
			PublicationDate: formatRFC3339(a.PublishedAt),
		})
	}

	return render(newsTemplate, newsSitemap{NewsOptions: opts, Entries: entries})
}

type imageEntry struct {
	URL     string
	LastMod string
	Images  []string
}

var imageTemplate = mustParse("image sitemap", `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
{{- range .}}
  <url>
    <loc>{{xml .URL}}</loc>
{{- if .LastMod}}
    <lastmod>{{.LastMod}}</lastmod>
{{- end}}
{{- range .Images}}
    <image:image>
      <image:loc>{{xml .}}</image:loc>
    </image:image>
{{- end}}
  </url>
{{- end}}
</urlset>
`)

// RenderImageSitemap renders one entry per article that has in-content
// images, in input order.
func RenderImageSitemap(articles []domain.Article) (string, error) {
	entries := lo.FilterMap(articles, func(a domain.Article, _ int) (imageEntry, bool) {
		return imageEntry{
			URL:     a.URL,
			LastMod: formatRFC3339(a.LastMod()),
			Images:  a.Images,
		}, a.HasImages()
	})

	return render(imageTemplate, entries)
}
