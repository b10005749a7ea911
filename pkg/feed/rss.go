package feed

import (
	"time"

	"sitemap-feeds/pkg/domain"
)

const DefaultMaxRSSItems = 50

// ChannelImage is the optional channel logo. Title and link are taken from
// the channel.
type ChannelImage struct {
	URL    string
	Width  int
	Height int
}

// RSSOptions describes the channel
type RSSOptions struct {
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string
	TTLMinutes  int
	MaxItems    int
	Image       *ChannelImage
}

type rssItem struct {
	Title       string
	URL         string
	PubDate     string
	Description string
	Image       string
}

type rssChannel struct {
	RSSOptions
	BuildDate string
	Items     []rssItem
}

var rssTemplate = mustParse("rss", `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>{{xml .Title}}</title>
    <link>{{xml .Link}}</link>
    <description>{{xml .Description}}</description>
    <language>{{xml .Language}}</language>
    <lastBuildDate>{{.BuildDate}}</lastBuildDate>
    <ttl>{{.TTLMinutes}}</ttl>
    <atom:link href="{{xml .SelfURL}}" rel="self" type="application/rss+xml"/>
{{- with .Image}}
    <image>
      <url>{{xml .URL}}</url>
      <title>{{xml $.Title}}</title>
      <link>{{xml $.Link}}</link>
      <width>{{.Width}}</width>
      <height>{{.Height}}</height>
    </image>
{{- end}}
{{- range .Items}}
    <item>
      <title>{{xml .Title}}</title>
      <link>{{xml .URL}}</link>
      <guid isPermaLink="true">{{xml .URL}}</guid>
{{- if .PubDate}}
      <pubDate>{{.PubDate}}</pubDate>
{{- end}}
{{- if .Description}}
      <description>{{xml .Description}}</description>
{{- end}}
{{- if .Image}}
      <media:content url="{{xml .Image}}" medium="image"/>
{{- end}}
    </item>
{{- end}}
  </channel>
</rss>
`)

// RenderRSS renders the newest MaxItems articles as an RSS 2.0 document.
// Items without a published date are listed last and carry no pubDate.
func RenderRSS(articles []domain.Article, opts RSSOptions, now time.Time) (string, error) {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxRSSItems
	}
	if opts.Image != nil && opts.Image.URL == "" {
		opts.Image = nil
	}

	sorted := SortByPublished(articles)
	if len(sorted) > opts.MaxItems {
		sorted = sorted[:opts.MaxItems]
	}

	items := make([]rssItem, 0, len(sorted))
	for _, a := range sorted {
		item := rssItem{
			Title:       a.Title,
			URL:         a.URL,
			Description: a.Description,
			Image:       a.PrimaryImage,
		}
		if a.PublishedAt != nil {
			item.PubDate = a.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		if item.Image == "" && a.HasImages() {
			item.Image = a.Images[0]
		}
		items = append(items, item)
	}

	return render(rssTemplate, rssChannel{
		RSSOptions: opts,
		BuildDate:  now.UTC().Format(time.RFC1123Z),
		Items:      items,
	})
}
