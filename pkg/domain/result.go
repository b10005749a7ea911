package domain

// DegradeReason explains why a scrape produced only a minimal record.
type DegradeReason string

const (
	ReasonNone        DegradeReason = ""
	ReasonFetchFailed DegradeReason = "fetch_failed"
	ReasonTimeout     DegradeReason = "timeout"
	ReasonBadStatus   DegradeReason = "bad_status"
	ReasonParseFailed DegradeReason = "parse_failed"
)

// ScrapeResult is the outcome of scraping one URL. Article is always usable;
// when Degraded is set it only carries the URL (as both URL and Title) and
// Reason/Err describe what went wrong.
type ScrapeResult struct {
	Article  Article
	Degraded bool
	Reason   DegradeReason
	Err      error
}

// OK wraps a fully scraped article.
func OK(article Article) ScrapeResult {
	return ScrapeResult{Article: article}
}

// Degraded builds the fallback result for url.
func Degraded(url string, reason DegradeReason, err error) ScrapeResult {
	return ScrapeResult{
		Article:  NewDegradedArticle(url),
		Degraded: true,
		Reason:   reason,
		Err:      err,
	}
}

// Articles extracts the article records from results, keeping their order.
func Articles(results []ScrapeResult) []Article {
	articles := make([]Article, 0, len(results))
	for _, r := range results {
		articles = append(articles, r.Article)
	}
	return articles
}
