package urls

import (
	"context"

	"sitemap-feeds/pkg/httpclient"
	"sitemap-feeds/pkg/sitemap"
)

// SitemapParser reads post URLs from an XML sitemap
type SitemapParser struct {
	parser *sitemap.Parser
}

// NewSitemapParser creates a sitemap source using client for requests
func NewSitemapParser(client *httpclient.HTTPClient) *SitemapParser {
	return &SitemapParser{parser: sitemap.NewParser(client)}
}

// Fetch implements URLsFetcher
func (p *SitemapParser) Fetch(ctx context.Context, sitemapURL string) ([]URL, error) {
	entries, err := p.parser.ParseFromURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	result := make([]URL, 0, len(entries))
	for _, e := range entries {
		result = append(result, URL{Location: e.Location, LastMod: e.LastMod})
	}
	return result, nil
}
