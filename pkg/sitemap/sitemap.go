package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"sitemap-feeds/pkg/httpclient"
)

// ErrNotURLSet is returned when the document root is not <urlset>.
// Sitemap indexes are not followed.
var ErrNotURLSet = errors.New("sitemap root element is not urlset")

// Entry represents a single URL entry from a sitemap
type Entry struct {
	Location   string // URL of the page
	LastMod    string // Last modification date (optional)
	Priority   string // Priority value (optional)
	ChangeFreq string // Change frequency (optional)
}

// urlSet represents a regular sitemap structure. XMLName is left untyped so
// any root decodes and can be checked afterwards.
type urlSet struct {
	XMLName xml.Name
	URLs    []urlEntry `xml:"url"`
}

// urlEntry represents a single URL entry in XML
type urlEntry struct {
	Location   string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// MaxBodyBytes is the largest uncompressed sitemap the protocol allows
const MaxBodyBytes = 50 << 20

// Parser handles sitemap fetching and parsing
type Parser struct {
	client *httpclient.HTTPClient
}

// NewParser creates a sitemap parser that uses client for requests.
// The client's body limit should be at least MaxBodyBytes.
func NewParser(client *httpclient.HTTPClient) *Parser {
	return &Parser{client: client}
}

// ParseFromURL fetches and parses a sitemap from the given URL.
// Transport failures and non-2xx responses are returned as errors.
func (p *Parser) ParseFromURL(ctx context.Context, sitemapURL string) ([]Entry, error) {
	body, _, err := p.client.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}

	return p.parseSitemap(bytes.NewReader(body))
}

// parseSitemap parses a regular sitemap XML
func (p *Parser) parseSitemap(reader io.Reader) ([]Entry, error) {
	var set urlSet
	decoder := xml.NewDecoder(reader)

	if err := decoder.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}

	if set.XMLName.Local != "urlset" {
		return nil, fmt.Errorf("%w: got <%s>", ErrNotURLSet, set.XMLName.Local)
	}

	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Location)
		if loc == "" {
			continue
		}
		entries = append(entries, Entry{
			Location:   loc,
			LastMod:    strings.TrimSpace(u.LastMod),
			Priority:   strings.TrimSpace(u.Priority),
			ChangeFreq: strings.TrimSpace(u.ChangeFreq),
		})
	}

	return entries, nil
}
