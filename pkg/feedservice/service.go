package feedservice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sitemap-feeds/pkg/archive"
	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/feed"
	"sitemap-feeds/pkg/filter"
	"sitemap-feeds/pkg/logger"
	"sitemap-feeds/pkg/metrics"
	"sitemap-feeds/pkg/notify"
	"sitemap-feeds/pkg/urls"
	"sitemap-feeds/pkg/worker"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Output file names, relative to Config.OutputDir
const (
	RSSFile          = "rss.xml"
	NewsSitemapFile  = "sitemap-news.xml"
	ImageSitemapFile = "image-sitemap.xml"
)

// ScrapeFunc scrapes one post page
type ScrapeFunc = worker.ScrapeFunc

// Service generates the feeds for one site
type Service struct {
	cfg       *config.Config
	log       *logger.Logger
	fetcher   urls.URLsFetcher
	scrape    ScrapeFunc
	runner    *worker.Runner
	sink      archive.Sink
	publisher notify.Publisher
	recorder  *metrics.Recorder
	now       func() time.Time
	newRunID  func() string
}

// Deps are the collaborators of a Service. Fetcher and Scrape are required;
// the rest are optional.
type Deps struct {
	Fetcher   urls.URLsFetcher
	Scrape    ScrapeFunc
	Sink      archive.Sink
	Publisher notify.Publisher
	Recorder  *metrics.Recorder
	Logger    *logger.Logger
	// Now overrides the clock used for lastBuildDate and the news window
	Now func() time.Time
}

// New creates a service from cfg and deps
func New(cfg *config.Config, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	return &Service{
		cfg:     cfg,
		log:     log.With("component", "feedservice"),
		fetcher: deps.Fetcher,
		scrape:  deps.Scrape,
		runner: worker.NewRunner(worker.Options{
			Mode:        worker.Mode(cfg.ScrapeMode),
			Concurrency: cfg.Concurrency,
			BatchPause:  cfg.BatchPause,
		}, log),
		sink:      deps.Sink,
		publisher: deps.Publisher,
		recorder:  recorder,
		now:       now,
		newRunID:  uuid.NewString,
	}
}

// Run reads the post URLs, scrapes them, renders the documents and writes
// them to the output directory. Failing to read the source or to write a
// file fails the run; archive, notification and metrics problems are only
// logged.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	started := s.now()
	runID := s.newRunID()
	log := s.log.With("run_id", runID)

	log.Info("reading post URLs", "kind", s.cfg.SourceKind, "source", s.cfg.SourceLocation())
	postURLs, err := urls.PostURLs(ctx, s.fetcher, s.cfg.SourceLocation(),
		filter.NewBaseURLFilter(),
		filter.NewPatternFilterFromRegexp(s.cfg.PostPattern()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read post URLs: %w", err)
	}
	if s.cfg.MaxURLs > 0 && len(postURLs) > s.cfg.MaxURLs {
		postURLs = postURLs[:s.cfg.MaxURLs]
	}
	s.recorder.SourceURLs.Set(float64(len(postURLs)))
	log.Info("found post URLs", "count", len(postURLs))

	results := s.runner.Run(ctx, postURLs, s.instrumentedScrape)
	articles := domain.Articles(results)
	generatedAt := s.now()

	docs, err := s.render(articles, generatedAt)
	if err != nil {
		return nil, err
	}

	files, err := s.write(docs)
	if err != nil {
		return nil, err
	}

	summary := newSummary(runID, s.cfg, results, files, generatedAt)
	finished := s.now()
	summary.Duration = finished.Sub(started)

	s.recorder.ItemsRendered.WithLabelValues("rss").Set(float64(summary.RSSItems))
	s.recorder.ItemsRendered.WithLabelValues("news").Set(float64(summary.NewsItems))
	s.recorder.ItemsRendered.WithLabelValues("image").Set(float64(summary.ImagePages))
	s.recorder.ObserveRun(started, finished)

	s.archiveResults(ctx, log, runID, results, generatedAt)
	s.notify(log, summary)
	s.writeMetrics(log)

	log.Info("feeds generated", "articles", summary.Articles, "degraded", summary.Degraded, "files", len(files))
	return summary, nil
}

func (s *Service) instrumentedScrape(ctx context.Context, url string) domain.ScrapeResult {
	start := time.Now()
	result := s.scrape(ctx, url)
	s.recorder.ObserveScrape(result, time.Since(start))
	return result
}

type document struct {
	name    string
	content string
}

func (s *Service) render(articles []domain.Article, now time.Time) ([]document, error) {
	rss, err := feed.RenderRSS(articles, s.rssOptions(), now)
	if err != nil {
		return nil, err
	}

	news, err := feed.RenderNewsSitemap(articles, feed.NewsOptions{
		PublicationName: s.cfg.PublicationName,
		Language:        s.cfg.NewsLanguage,
		Window:          s.cfg.NewsWindow,
	}, now)
	if err != nil {
		return nil, err
	}

	docs := []document{
		{name: RSSFile, content: rss},
		{name: NewsSitemapFile, content: news},
	}

	if s.cfg.ImageSitemap {
		images, err := feed.RenderImageSitemap(articles)
		if err != nil {
			return nil, err
		}
		docs = append(docs, document{name: ImageSitemapFile, content: images})
	}

	return docs, nil
}

func (s *Service) rssOptions() feed.RSSOptions {
	opts := feed.RSSOptions{
		Title:       s.cfg.PublicationName,
		Link:        s.cfg.SiteURL,
		Description: s.cfg.FeedDescription,
		Language:    s.cfg.RSSLanguage,
		SelfURL:     s.cfg.FeedSelfURL,
		TTLMinutes:  s.cfg.RSSTTLMinutes,
		MaxItems:    s.cfg.MaxRSSItems,
	}
	if s.cfg.ChannelLogoURL != "" {
		opts.Image = &feed.ChannelImage{
			URL:    s.cfg.ChannelLogoURL,
			Width:  s.cfg.ChannelLogoWidth,
			Height: s.cfg.ChannelLogoHeight,
		}
	}
	return opts
}

func (s *Service) write(docs []document) ([]string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := make([]string, 0, len(docs))
	for _, doc := range docs {
		path := filepath.Join(s.cfg.OutputDir, doc.name)
		if err := os.WriteFile(path, []byte(doc.content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func (s *Service) archiveResults(ctx context.Context, log *logger.Logger, runID string, results []domain.ScrapeResult, at time.Time) {
	if s.sink == nil {
		return
	}
	if timeout := s.cfg.Archive.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.sink.Save(ctx, archive.NewRecords(runID, results, at)); err != nil {
		log.Error("archive failed", "sink", s.sink.Name(), "error", err)
		return
	}
	log.Info("archived articles", "sink", s.sink.Name(), "count", len(results))
}

func (s *Service) notify(log *logger.Logger, summary *Summary) {
	if s.publisher == nil {
		return
	}
	event := notify.FeedsGenerated{
		RunID:       summary.RunID,
		Timestamp:   summary.GeneratedAt,
		SiteURL:     s.cfg.SiteURL,
		Files:       lo.Map(summary.Files, func(f string, _ int) string { return filepath.Base(f) }),
		Articles:    summary.Articles,
		Degraded:    summary.Degraded,
		RSSItems:    summary.RSSItems,
		NewsItems:   summary.NewsItems,
		ImagePages:  summary.ImagePages,
		DurationSec: summary.Duration.Seconds(),
	}
	if err := s.publisher.Publish(event); err != nil {
		log.Error("notification failed", "error", err)
	}
}

func (s *Service) writeMetrics(log *logger.Logger) {
	if s.cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := s.recorder.WriteTextfile(s.cfg.Metrics.TextfilePath); err != nil {
		log.Error("metrics export failed", "error", err)
	}
}
