package feedservice

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/feed"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

const titleWidth = 60

// Summary describes a finished run
type Summary struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration
	SourceURLs  int
	Articles    int
	Degraded    int
	Reasons     map[domain.DegradeReason]int
	RSSItems    int
	NewsItems   int
	ImagePages  int
	Files       []string
	Results     []domain.ScrapeResult
}

func newSummary(runID string, cfg *config.Config, results []domain.ScrapeResult, files []string, now time.Time) *Summary {
	articles := domain.Articles(results)
	degraded := lo.Filter(results, func(r domain.ScrapeResult, _ int) bool { return r.Degraded })

	return &Summary{
		RunID:       runID,
		GeneratedAt: now,
		SourceURLs:  len(results),
		Articles:    len(articles),
		Degraded:    len(degraded),
		Reasons:     lo.CountValuesBy(degraded, func(r domain.ScrapeResult) domain.DegradeReason { return r.Reason }),
		RSSItems:    min(len(articles), cfg.MaxRSSItems),
		NewsItems: min(feed.MaxNewsItems, lo.CountBy(articles, func(a domain.Article) bool {
			return feed.InNewsWindow(a, now, cfg.NewsWindow)
		})),
		ImagePages: imagePages(cfg, articles),
		Files:      files,
		Results:    results,
	}
}

func imagePages(cfg *config.Config, articles []domain.Article) int {
	if !cfg.ImageSitemap {
		return 0
	}
	return lo.CountBy(articles, func(a domain.Article) bool { return a.HasImages() })
}

// Print writes the run statistics followed by a table of scraped articles
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s finished in %s\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Post URLs:     %d\n", s.SourceURLs)
	fmt.Fprintf(w, "  Degraded:      %d%s\n", s.Degraded, s.reasonList())
	fmt.Fprintf(w, "  RSS items:     %d\n", s.RSSItems)
	fmt.Fprintf(w, "  News items:    %d\n", s.NewsItems)
	fmt.Fprintf(w, "  Image pages:   %d\n", s.ImagePages)
	for _, f := range s.Files {
		fmt.Fprintf(w, "  Wrote:         %s\n", f)
	}

	if len(s.Results) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, line := range s.Table() {
		fmt.Fprintln(w, line)
	}
}

func (s *Summary) reasonList() string {
	if len(s.Reasons) == 0 {
		return ""
	}
	parts := lo.MapToSlice(s.Reasons, func(reason domain.DegradeReason, n int) string {
		return fmt.Sprintf("%s=%d", reason, n)
	})
	sort.Strings(parts)
	return " (" + strings.Join(parts, ", ") + ")"
}

// Table renders the articles as a markdown table padded by display width,
// so wide characters in titles stay aligned.
func (s *Summary) Table() []string {
	rows := [][]string{{"#", "Published", "Title", "Status"}}
	for i, r := range s.Results {
		published := "-"
		if r.Article.PublishedAt != nil {
			published = r.Article.PublishedAt.Format("2006-01-02 15:04")
		}
		status := "ok"
		if r.Degraded {
			status = string(r.Reason)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			published,
			runewidth.Truncate(r.Article.Title, titleWidth, "…"),
			status,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell), 3)
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		lines = append(lines, formatRow(row, widths))
		if i == 0 {
			sep := lo.Map(widths, func(w int, _ int) string { return strings.Repeat("-", w) })
			lines = append(lines, formatRow(sep, widths))
		}
	}
	return lines
}

func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(cell, widths[i]))
		sb.WriteString(" |")
	}
	return sb.String()
}
