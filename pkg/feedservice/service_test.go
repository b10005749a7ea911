package feedservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"sitemap-feeds/pkg/archive"
	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/content"
	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/httpclient"
	"sitemap-feeds/pkg/logger"
	"sitemap-feeds/pkg/notify"
	"sitemap-feeds/pkg/scraper"

	"github.com/mmcdole/gofeed"
)

var fixedNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

// site serves a sitemap and a set of post pages
type site struct {
	server *httptest.Server
	pages  map[string]http.HandlerFunc
}

func newSite(t *testing.T, pages map[string]http.HandlerFunc) *site {
	t.Helper()

	s := &site{pages: pages}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap.xml" {
			s.writeSitemap(w)
			return
		}
		if h, ok := s.pages[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) writeSitemap(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, path := range sortedPaths(s.pages) {
		fmt.Fprintf(&b, "<url><loc>%s%s</loc></url>", s.server.URL, path)
	}
	fmt.Fprintf(&b, "<url><loc>%s/about/</loc></url>", s.server.URL)
	b.WriteString("</urlset>")
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(b.String()))
}

func sortedPaths(pages map[string]http.HandlerFunc) []string {
	paths := make([]string, 0, len(pages))
	for p := range pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func htmlPage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

func slowPage(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(3 * time.Second):
	}
}

func testConfig(t *testing.T, sitemapURL string) *config.Config {
	t.Helper()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.hcl"))
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	cfg.SitemapURL = sitemapURL
	cfg.OutputDir = t.TempDir()
	cfg.RequestTimeout = 300 * time.Millisecond
	cfg.Concurrency = 4
	return cfg
}

func testDeps(t *testing.T, cfg *config.Config) Deps {
	t.Helper()

	client := httpclient.NewClientWithOptions(httpclient.Options{Type: httpclient.DefaultClient, Timeout: cfg.RequestTimeout})
	fetcher, err := NewFetcher(cfg)
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	extractor := content.NewMetadataExtractor(content.Options{
		DescriptionMaxLen: cfg.DescriptionMaxLen,
		MaxImagesPerPage:  cfg.MaxImagesPerPage,
	})

	return Deps{
		Fetcher: fetcher,
		Scrape:  scraper.New(client, extractor, nil).Scrape,
		Now:     func() time.Time { return fixedNow },
	}
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestRun_DatedAndUndatedPosts(t *testing.T) {
	publishedA := fixedNow.Add(-10 * time.Hour).Format(time.RFC3339)

	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/post-a/": htmlPage(`<html><head>
<meta property="og:title" content="Post A">
<meta property="article:published_time" content="` + publishedA + `">
</head><body><article><p>Alpha body.</p><img src="/a.png"></article></body></html>`),
		"/2024/05/post-b/": htmlPage(`<html><head><title>Post B</title></head><body><p>Beta body.</p></body></html>`),
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	summary, err := New(cfg, testDeps(t, cfg)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rss := readOutput(t, cfg, RSSFile)
	parsed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("rss.xml does not parse: %v", err)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 RSS items, got %d", len(parsed.Items))
	}
	if parsed.Items[0].Title != "Post A" || parsed.Items[0].PublishedParsed == nil {
		t.Errorf("Expected dated Post A first, got %+v", parsed.Items[0])
	}
	if parsed.Items[1].Title != "Post B" || parsed.Items[1].Published != "" {
		t.Errorf("Expected undated Post B without pubDate, got %+v", parsed.Items[1])
	}

	news := readOutput(t, cfg, NewsSitemapFile)
	if !strings.Contains(news, s.server.URL+"/2024/05/post-a/") {
		t.Errorf("News sitemap should list post A:\n%s", news)
	}
	if strings.Contains(news, "post-b") {
		t.Errorf("News sitemap should not list undated post B:\n%s", news)
	}
	if strings.Contains(rss, "/about/") {
		t.Errorf("Non-post URLs should be filtered out:\n%s", rss)
	}

	images := readOutput(t, cfg, ImageSitemapFile)
	if !strings.Contains(images, s.server.URL+"/a.png") || strings.Count(images, "<url>") != 1 {
		t.Errorf("Unexpected image sitemap:\n%s", images)
	}

	if summary.SourceURLs != 2 || summary.Degraded != 0 || summary.NewsItems != 1 || summary.RSSItems != 2 || summary.ImagePages != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if len(summary.Files) != 3 || summary.RunID == "" {
		t.Errorf("Unexpected summary files/run id: %v %q", summary.Files, summary.RunID)
	}
}

func TestRun_TimedOutPageDoesNotAbort(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/fast/": htmlPage(`<html><head><title>Fast</title></head><body></body></html>`),
		"/2024/05/slow/": slowPage,
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.RequestTimeout = 100 * time.Millisecond

	summary, err := New(cfg, testDeps(t, cfg)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	slowURL := s.server.URL + "/2024/05/slow/"
	var slow *domain.ScrapeResult
	for i := range summary.Results {
		if summary.Results[i].Article.URL == slowURL {
			slow = &summary.Results[i]
		}
	}
	if slow == nil {
		t.Fatal("Slow page missing from results")
	}
	if !slow.Degraded || slow.Reason != domain.ReasonTimeout {
		t.Errorf("Expected timeout degradation, got %+v", slow)
	}
	if slow.Article.Title != slowURL || slow.Article.PublishedAt != nil || slow.Article.PrimaryImage != "" || len(slow.Article.Images) != 0 {
		t.Errorf("Degraded article should only carry its URL: %+v", slow.Article)
	}
	if summary.Reasons[domain.ReasonTimeout] != 1 {
		t.Errorf("Expected one timeout in summary, got %v", summary.Reasons)
	}

	rss := readOutput(t, cfg, RSSFile)
	if !strings.Contains(rss, "<title>"+slowURL+"</title>") || !strings.Contains(rss, "<title>Fast</title>") {
		t.Errorf("Both posts should be in the feed:\n%s", rss)
	}
}

func TestRun_SourceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL+"/sitemap.xml")
	_, err := New(cfg, testDeps(t, cfg)).Run(context.Background())

	if !errors.Is(err, httpclient.ErrUnexpectedStatus) {
		t.Fatalf("Expected status error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.OutputDir, RSSFile)); !os.IsNotExist(statErr) {
		t.Error("No output should be written when the source fails")
	}
}

func TestRun_WriteFailure(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/post/": htmlPage(`<html><head><title>Post</title></head></html>`),
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	cfg.OutputDir = blocker

	if _, err := New(cfg, testDeps(t, cfg)).Run(context.Background()); err == nil {
		t.Fatal("Expected write error")
	}
}

func TestRun_EmptySourceStillRenders(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{})
	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.ImageSitemap = false

	summary, err := New(cfg, testDeps(t, cfg)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SourceURLs != 0 || len(summary.Files) != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, ImageSitemapFile)); !os.IsNotExist(err) {
		t.Error("Image sitemap should not be written when disabled")
	}
	if !strings.Contains(readOutput(t, cfg, RSSFile), "<channel>") {
		t.Error("Expected an empty but valid channel")
	}
}

type recordingSink struct {
	mu       sync.Mutex
	records  []archive.Record
	deadline time.Time
	err      error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Save(ctx context.Context, records []archive.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	r.deadline, _ = ctx.Deadline()
	return r.err
}

func (r *recordingSink) Close(ctx context.Context) error { return nil }

type recordingPublisher struct {
	events []notify.FeedsGenerated
	err    error
}

func (p *recordingPublisher) Publish(event notify.FeedsGenerated) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func TestRun_OptionalIntegrations(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/one/": htmlPage(`<html><head><title>One</title></head></html>`),
		"/2024/05/two/": htmlPage(`<html><head><title>Two</title></head></html>`),
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "feeds.prom")

	sink := &recordingSink{}
	publisher := &recordingPublisher{}
	deps := testDeps(t, cfg)
	deps.Sink = sink
	deps.Publisher = publisher

	summary, err := New(cfg, deps).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.records) != 2 || sink.records[0].RunID != summary.RunID {
		t.Errorf("Unexpected archived records: %+v", sink.records)
	}
	if sink.deadline.IsZero() {
		t.Error("Expected archive save to carry the archive timeout deadline")
	}
	if len(publisher.events) != 1 {
		t.Fatalf("Expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.RunID != summary.RunID || event.Articles != 2 || event.Files[0] != RSSFile {
		t.Errorf("Unexpected event: %+v", event)
	}

	prom, err := os.ReadFile(cfg.Metrics.TextfilePath)
	if err != nil {
		t.Fatalf("Metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(prom), `feeds_articles_scraped_total{reason="",status="ok"} 2`) {
		t.Errorf("Unexpected metrics:\n%s", prom)
	}
}

func TestRun_IntegrationFailuresAreNotFatal(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/one/": htmlPage(`<html><head><title>One</title></head></html>`),
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "missing-dir", "feeds.prom")

	var logs bytes.Buffer
	deps := testDeps(t, cfg)
	deps.Sink = &recordingSink{err: errors.New("db down")}
	deps.Publisher = &recordingPublisher{err: errors.New("nats down")}
	deps.Logger = logger.NewLoggerTo(&logs, "info")

	if _, err := New(cfg, deps).Run(context.Background()); err != nil {
		t.Fatalf("Integration failures must not fail the run: %v", err)
	}

	out := logs.String()
	for _, want := range []string{"archive failed", "notification failed", "metrics export failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in logs:\n%s", want, out)
		}
	}
}

func TestRun_MaxURLs(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/a/": htmlPage(`<html><head><title>A</title></head></html>`),
		"/2024/05/b/": htmlPage(`<html><head><title>B</title></head></html>`),
		"/2024/05/c/": htmlPage(`<html><head><title>C</title></head></html>`),
	})

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.MaxURLs = 2

	summary, err := New(cfg, testDeps(t, cfg)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SourceURLs != 2 {
		t.Errorf("Expected 2 URLs, got %d", summary.SourceURLs)
	}
}

func TestRun_FileSource(t *testing.T) {
	s := newSite(t, map[string]http.HandlerFunc{
		"/2024/05/listed/": htmlPage(`<html><head><title>Listed</title></head></html>`),
	})

	list := filepath.Join(t.TempDir(), "urls.txt")
	lines := "# posts\n" + s.server.URL + "/2024/05/listed/\n" + s.server.URL + "/contact\n"
	if err := os.WriteFile(list, []byte(lines), 0644); err != nil {
		t.Fatalf("Failed to write list: %v", err)
	}

	cfg := testConfig(t, s.server.URL+"/sitemap.xml")
	cfg.SourceKind = "file"
	cfg.Source = list

	summary, err := New(cfg, testDeps(t, cfg)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SourceURLs != 1 || summary.Results[0].Article.Title != "Listed" {
		t.Errorf("Unexpected results: %+v", summary.Results)
	}
}
