package urls

import (
	"context"
	"fmt"
	"time"

	"sitemap-feeds/pkg/httpclient"

	"github.com/mmcdole/gofeed"
)

// RSSParser reads post URLs from an RSS or Atom feed
type RSSParser struct {
	feedParser *gofeed.Parser
}

// NewRSSParser creates a feed source that sends its requests through client,
// so the feed fetch uses the same profile headers and timeout as the scrapes.
func NewRSSParser(client *httpclient.HTTPClient) *RSSParser {
	fp := gofeed.NewParser()
	fp.Client = client.StandardClient()
	return &RSSParser{feedParser: fp}
}

// Fetch implements URLsFetcher
func (p *RSSParser) Fetch(ctx context.Context, feedURL string) ([]URL, error) {
	feed, err := p.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	urls := make([]URL, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		u := URL{Location: item.Link, Title: item.Title}
		if item.UpdatedParsed != nil {
			u.LastMod = item.UpdatedParsed.UTC().Format(time.RFC3339)
		} else if item.PublishedParsed != nil {
			u.LastMod = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		urls = append(urls, u)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no valid URLs found in feed items")
	}

	return urls, nil
}
