package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sitemap-feeds/pkg/httpclient"
)

func TestParseSitemap(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url>
		<loc>https://engineering.fb.com/post1</loc>
		<lastmod>2024-01-15</lastmod>
		<priority>0.8</priority>
		<changefreq>monthly</changefreq>
	</url>
	<url>
		<loc>
			https://engineering.fb.com/post2
		</loc>
		<lastmod>2024-01-20</lastmod>
	</url>
	<url>
		<loc>https://engineering.fb.com/post3</loc>
	</url>
</urlset>`

	parser := &Parser{}
	entries, err := parser.parseSitemap(strings.NewReader(xmlData))
	if err != nil {
		t.Fatalf("Failed to parse sitemap: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	entry1 := entries[0]
	if entry1.Location != "https://engineering.fb.com/post1" {
		t.Errorf("Expected location 'https://engineering.fb.com/post1', got '%s'", entry1.Location)
	}
	if entry1.LastMod != "2024-01-15" {
		t.Errorf("Expected LastMod '2024-01-15', got '%s'", entry1.LastMod)
	}
	if entry1.Priority != "0.8" {
		t.Errorf("Expected Priority '0.8', got '%s'", entry1.Priority)
	}
	if entry1.ChangeFreq != "monthly" {
		t.Errorf("Expected ChangeFreq 'monthly', got '%s'", entry1.ChangeFreq)
	}

	if entries[1].Location != "https://engineering.fb.com/post2" {
		t.Errorf("Expected trimmed location, got '%s'", entries[1].Location)
	}
}

func TestParseSitemap_SingleURL(t *testing.T) {
	xmlData := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>https://example.com/only</loc></url></urlset>`

	entries, err := (&Parser{}).parseSitemap(strings.NewReader(xmlData))
	if err != nil {
		t.Fatalf("Failed to parse sitemap: %v", err)
	}
	if len(entries) != 1 || entries[0].Location != "https://example.com/only" {
		t.Errorf("Expected single entry, got %+v", entries)
	}
}

func TestParseSitemapEmpty(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
</urlset>`

	entries, err := (&Parser{}).parseSitemap(strings.NewReader(xmlData))
	if err != nil {
		t.Fatalf("Failed to parse empty sitemap: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("Expected 0 entries, got %d", len(entries))
	}
}

func TestParseSitemapInvalidXML(t *testing.T) {
	_, err := (&Parser{}).parseSitemap(strings.NewReader(`<?xml version="1.0"?><invalid>`))
	if err == nil {
		t.Error("Expected error for invalid XML, got nil")
	}
}

func TestParseSitemapIndexRejected(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<sitemap><loc>https://example.com/sitemap1.xml</loc></sitemap>
</sitemapindex>`

	_, err := (&Parser{}).parseSitemap(strings.NewReader(xmlData))
	if !errors.Is(err, ErrNotURLSet) {
		t.Fatalf("Expected ErrNotURLSet, got %v", err)
	}
}

func newParser() *Parser {
	return NewParser(httpclient.NewClientWithOptions(httpclient.Options{MaxBodyBytes: MaxBodyBytes}))
}

func TestParseFromURL_LargeSitemap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	count := 0
	for b.Len() < 12<<20 {
		fmt.Fprintf(&b, "<url><loc>https://example.com/2024/05/post-%d/</loc><lastmod>2024-05-01</lastmod></url>", count)
		count++
	}
	b.WriteString("</urlset>")
	body := b.String()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	defer server.Close()

	entries, err := newParser().ParseFromURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ParseFromURL failed: %v", err)
	}
	if len(entries) != count {
		t.Errorf("Expected %d entries, got %d", count, len(entries))
	}
}

func TestParseFromURL_OverLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset><url><loc>https://example.com/a</loc></url></urlset>`))
	}))
	defer server.Close()

	parser := NewParser(httpclient.NewClientWithOptions(httpclient.Options{MaxBodyBytes: 16}))
	if _, err := parser.ParseFromURL(context.Background(), server.URL); !errors.Is(err, httpclient.ErrBodyTooLarge) {
		t.Errorf("Expected ErrBodyTooLarge, got %v", err)
	}
}

func TestParseFromURL_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newParser().ParseFromURL(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 500 status, got nil")
	}
	if !errors.Is(err, httpclient.ErrUnexpectedStatus) {
		t.Errorf("Expected ErrUnexpectedStatus in chain, got %v", err)
	}
}

func TestParseFromURL_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if _, err := newParser().ParseFromURL(context.Background(), url); err == nil {
		t.Fatal("Expected error for unreachable sitemap, got nil")
	}
}
