package filter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Filter defines the interface for URL filtering
type Filter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// FilterURLs applies all filters to a list of URLs
func FilterURLs(ctx context.Context, urls []string, filters ...Filter) ([]string, error) {
	filtered := make([]string, 0, len(urls))

	for _, urlStr := range urls {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, urlStr)
			if err != nil {
				return nil, fmt.Errorf("filter error for URL %s: %w", urlStr, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, urlStr)
		}
	}

	return filtered, nil
}

// Dedupe removes repeated URLs, keeping the first occurrence of each.
// Surrounding whitespace is ignored when comparing.
func Dedupe(urls []string) []string {
	trimmed := lo.Map(urls, func(u string, _ int) string {
		return strings.TrimSpace(u)
	})
	return lo.Uniq(lo.Compact(trimmed))
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		// If we can't parse it, don't filter it out (let it fail later if needed)
		return true, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// AbsoluteURLFilter keeps only absolute http(s) URLs with a host.
type AbsoluteURLFilter struct{}

// NewAbsoluteURLFilter creates a new absolute URL filter
func NewAbsoluteURLFilter() *AbsoluteURLFilter {
	return &AbsoluteURLFilter{}
}

// ShouldKeep returns true for absolute http and https URLs
func (f *AbsoluteURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return IsAbsoluteHTTP(urlStr), nil
}

// IsAbsoluteHTTP reports whether s parses as an http or https URL with a host.
func IsAbsoluteHTTP(s string) bool {
	parsed, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// PatternFilter keeps URLs whose path matches a regular expression, e.g.
// `/\d{4}/\d{2}/[^/]+/?$` for date-based post permalinks.
type PatternFilter struct {
	pattern *regexp.Regexp
}

// NewPatternFilter compiles expr into a filter.
func NewPatternFilter(expr string) (*PatternFilter, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid post URL pattern %q: %w", expr, err)
	}
	return &PatternFilter{pattern: re}, nil
}

// NewPatternFilterFromRegexp wraps an already compiled expression.
func NewPatternFilterFromRegexp(re *regexp.Regexp) *PatternFilter {
	return &PatternFilter{pattern: re}
}

// ShouldKeep returns true if the URL path matches the pattern
func (f *PatternFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false, nil
	}
	return f.pattern.MatchString(parsed.Path), nil
}
