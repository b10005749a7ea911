package feedservice

import (
	"context"
	"fmt"

	"sitemap-feeds/pkg/archive"
	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/content"
	"sitemap-feeds/pkg/httpclient"
	"sitemap-feeds/pkg/logger"
	"sitemap-feeds/pkg/notify"
	"sitemap-feeds/pkg/scraper"
	"sitemap-feeds/pkg/sitemap"
	"sitemap-feeds/pkg/urls"
)

// NewFetcher returns the URL source selected by cfg.SourceKind. Sources get
// their own client whose body limit admits the largest valid sitemap.
func NewFetcher(cfg *config.Config) (urls.URLsFetcher, error) {
	client := httpclient.NewClientWithOptions(httpclient.Options{
		Type:         httpclient.ClientType(cfg.ClientProfile),
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: sitemap.MaxBodyBytes,
	})

	switch urls.Kind(cfg.SourceKind) {
	case urls.KindSitemap:
		return urls.NewSitemapParser(client), nil
	case urls.KindRSS:
		return urls.NewRSSParser(client), nil
	case urls.KindFile:
		return urls.NewFileParser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidSourceKind, cfg.SourceKind)
	}
}

func natsConfig(cfg config.NATSConfig) notify.NATSConfig {
	return notify.NATSConfig{
		URL:          cfg.URL,
		Subject:      cfg.Subject,
		FlushTimeout: cfg.FlushTimeout,
	}
}

// NewFromConfig wires a Service with real collaborators. Optional
// integrations that cannot be reached are logged and left out. The returned
// cleanup function releases their connections.
func NewFromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Service, func(), error) {
	client := httpclient.NewClientWithOptions(httpclient.Options{
		Type:    httpclient.ClientType(cfg.ClientProfile),
		Timeout: cfg.RequestTimeout,
	})

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}

	extractor := content.NewMetadataExtractor(content.Options{
		DescriptionMaxLen: cfg.DescriptionMaxLen,
		MaxImagesPerPage:  cfg.MaxImagesPerPage,
	})
	pageScraper := scraper.New(client, extractor, log)

	deps := Deps{
		Fetcher: fetcher,
		Scrape:  pageScraper.Scrape,
		Logger:  log,
	}

	var cleanups []func()

	sinks, err := archive.FromConfig(ctx, cfg.Archive)
	if err != nil {
		log.Error("archive unavailable", "error", err)
	}
	if sinks.Len() > 0 {
		deps.Sink = sinks
		cleanups = append(cleanups, func() {
			if err := sinks.Close(context.Background()); err != nil {
				log.Warn("failed to close archive", "error", err)
			}
		})
	}

	if cfg.NATS.URL != "" {
		publisher, err := notify.NewNATSPublisher(natsConfig(cfg.NATS))
		if err != nil {
			log.Error("notifications unavailable", "error", err)
		} else {
			deps.Publisher = publisher
			cleanups = append(cleanups, publisher.Close)
		}
	}

	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	return New(cfg, deps), cleanup, nil
}
