package urls

import (
	"context"
	"fmt"

	"sitemap-feeds/pkg/filter"

	"github.com/samber/lo"
)

// Kind selects where post URLs come from.
type Kind string

const (
	KindSitemap Kind = "sitemap"
	KindRSS     Kind = "rss"
	KindFile    Kind = "file"
)

// URL represents a URL entry from a source (sitemap, RSS or file)
type URL struct {
	Location string // URL of the post
	Title    string // Title of the post (optional)
	LastMod  string // Last modification hint as found in the source (optional)
}

// URLsFetcher defines the interface for URL sources (sitemap, RSS, etc.)
type URLsFetcher interface {
	Fetch(ctx context.Context, source string) ([]URL, error)
}

// PostURLs reads source with fetcher and returns the absolute URLs that
// pass every filter, de-duplicated in source order.
func PostURLs(ctx context.Context, fetcher URLsFetcher, source string, filters ...filter.Filter) ([]string, error) {
	found, err := fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	locations := lo.Map(found, func(u URL, _ int) string { return u.Location })

	all := append([]filter.Filter{filter.NewAbsoluteURLFilter()}, filters...)
	kept, err := filter.FilterURLs(ctx, filter.Dedupe(locations), all...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter URLs: %w", err)
	}

	return kept, nil
}
