package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"sitemap-feeds/pkg/content"
	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/httpclient"
	"sitemap-feeds/pkg/logger"

	"golang.org/x/net/html/charset"
)

// Scraper fetches a post page and extracts its article metadata
type Scraper struct {
	client    *httpclient.HTTPClient
	extractor content.Extractor
	log       *logger.Logger
}

// New creates a scraper. A nil log discards records.
func New(client *httpclient.HTTPClient, extractor content.Extractor, log *logger.Logger) *Scraper {
	if log == nil {
		log = logger.Discard()
	}
	return &Scraper{
		client:    client,
		extractor: extractor,
		log:       log.With("component", "scraper"),
	}
}

// Scrape fetches pageURL and extracts its metadata. It never fails: any
// fetch or parse problem yields a degraded result carrying the reason.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) domain.ScrapeResult {
	body, contentType, err := s.client.Fetch(ctx, pageURL)
	if err != nil {
		return s.degraded(pageURL, Classify(err), err)
	}

	htmlContent, err := decode(body, contentType)
	if err != nil {
		return s.degraded(pageURL, domain.ReasonParseFailed, err)
	}

	article, err := s.extractor.Extract(pageURL, htmlContent)
	if err != nil {
		return s.degraded(pageURL, domain.ReasonParseFailed, err)
	}

	s.log.Debug("scraped article", "url", pageURL, "title", article.Title, "images", len(article.Images))
	return domain.OK(article)
}

func (s *Scraper) degraded(pageURL string, reason domain.DegradeReason, err error) domain.ScrapeResult {
	s.log.Warn("degraded article", "url", pageURL, "reason", reason, "error", err)
	return domain.Degraded(pageURL, reason, err)
}

// Classify maps a fetch error to a degrade reason.
func Classify(err error) domain.DegradeReason {
	if err == nil {
		return domain.ReasonNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ReasonTimeout
	}
	if errors.Is(err, httpclient.ErrUnexpectedStatus) {
		return domain.ReasonBadStatus
	}
	return domain.ReasonFetchFailed
}

// decode converts body to UTF-8 using the Content-Type header and any
// charset declared in the document itself.
func decode(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}
