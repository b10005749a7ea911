package urls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"sitemap-feeds/pkg/filter"
	"sitemap-feeds/pkg/httpclient"
)

type mockURLsFetcher struct {
	urls []URL
	err  error
}

func (m *mockURLsFetcher) Fetch(ctx context.Context, source string) ([]URL, error) {
	return m.urls, m.err
}

func TestPostURLs(t *testing.T) {
	fetcher := &mockURLsFetcher{urls: []URL{
		{Location: "https://example.com/posts/a"},
		{Location: "https://example.com/posts/a"},
		{Location: "relative/posts/b"},
		{Location: "https://example.com/pages/about"},
		{Location: "https://example.com/posts/c"},
	}}
	pattern, _ := filter.NewPatternFilter(`^/posts/`)

	got, err := PostURLs(context.Background(), fetcher, "ignored", pattern)
	if err != nil {
		t.Fatalf("PostURLs failed: %v", err)
	}

	want := []string{"https://example.com/posts/a", "https://example.com/posts/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestPostURLs_FetchError(t *testing.T) {
	fetcher := &mockURLsFetcher{err: errors.New("down")}

	if _, err := PostURLs(context.Background(), fetcher, "ignored"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestSitemapParser_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>https://example.com/a</loc><lastmod>2024-01-02</lastmod></url>
</urlset>`))
	}))
	defer server.Close()

	urls, err := NewSitemapParser(httpclient.NewClient(httpclient.DefaultClient)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(urls) != 1 || urls[0].Location != "https://example.com/a" || urls[0].LastMod != "2024-01-02" {
		t.Errorf("Unexpected result: %+v", urls)
	}
}

func TestPostURLs_FromSitemap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>https://example.com/2024/05/first-post/</loc></url>
	<url><loc>https://example.com/about/</loc></url>
	<url><loc>https://example.com/2024/05/first-post/</loc></url>
	<url><loc>https://example.com/2024/06/second-post/</loc></url>
	<url><loc>/2024/06/relative-post/</loc></url>
	<url><loc>https://example.com/category/news/</loc></url>
</urlset>`))
	}))
	defer server.Close()

	pattern, _ := filter.NewPatternFilter(`^/\d{4}/\d{2}/[^/]+/?$`)
	fetcher := NewSitemapParser(httpclient.NewClient(httpclient.DefaultClient))

	got, err := PostURLs(context.Background(), fetcher, server.URL+"/sitemap.xml", pattern)
	if err != nil {
		t.Fatalf("PostURLs failed: %v", err)
	}

	want := []string{
		"https://example.com/2024/05/first-post/",
		"https://example.com/2024/06/second-post/",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
