package content

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	// DefaultDescriptionMaxLen is the soft cap for paragraph-derived descriptions
	DefaultDescriptionMaxLen = 220
	// DefaultMaxImagesPerPage bounds Article.Images
	DefaultMaxImagesPerPage = 20
)

// Options tunes the extraction limits
type Options struct {
	DescriptionMaxLen int
	MaxImagesPerPage  int
}

// Extractor turns a post page into an article record
type Extractor interface {
	Extract(pageURL string, htmlContent string) (domain.Article, error)
}

// MetadataExtractor reads social-preview meta tags, structured data and the
// DOM, taking the first non-empty signal for each field.
type MetadataExtractor struct {
	opts Options
}

// NewMetadataExtractor creates an extractor; zero limits fall back to defaults.
func NewMetadataExtractor(opts Options) *MetadataExtractor {
	if opts.DescriptionMaxLen <= 0 {
		opts.DescriptionMaxLen = DefaultDescriptionMaxLen
	}
	if opts.MaxImagesPerPage <= 0 {
		opts.MaxImagesPerPage = DefaultMaxImagesPerPage
	}
	return &MetadataExtractor{opts: opts}
}

// Extract implements Extractor. pageURL must be absolute; it becomes the
// record URL and the base for resolving image references.
func (e *MetadataExtractor) Extract(pageURL string, htmlContent string) (domain.Article, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("failed to parse page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return domain.Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	blocks := structuredDataBlocks(doc)
	images := contentImages(doc, base, e.opts.MaxImagesPerPage)

	article := domain.Article{
		URL:          pageURL,
		Title:        ExtractTitle(doc, pageURL),
		Description:  e.extractDescription(doc, htmlContent, base),
		PublishedAt:  e.publishedAt(doc, blocks),
		ModifiedAt:   firstDate(metaProperty(doc, "article:modified_time"), blocks.find("dateModified"), metaProperty(doc, "og:updated_time")),
		PrimaryImage: primaryImage(doc, base, images),
		Images:       images,
	}

	return article, nil
}

func (e *MetadataExtractor) publishedAt(doc *goquery.Document, blocks ldBlocks) *time.Time {
	candidates := []string{metaProperty(doc, "article:published_time"), blocks.find("datePublished")}
	return firstDate(append(candidates, timeElements(doc)...)...)
}

// ExtractTitle returns the page title: og:title, then the first h1, then the
// title element. fallback is returned when none of them has text.
func ExtractTitle(doc *goquery.Document, fallback string) string {
	if title := metaProperty(doc, "og:title"); title != "" {
		return title
	}
	if title := textutil.NormalizeSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title := textutil.NormalizeSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return fallback
}

func (e *MetadataExtractor) extractDescription(doc *goquery.Document, htmlContent string, base *url.URL) string {
	if desc := metaName(doc, "description"); desc != "" {
		return desc
	}
	if desc := metaProperty(doc, "og:description"); desc != "" {
		return desc
	}

	paragraph := ExtractFirstParagraph(htmlContent, base)
	if paragraph == "" {
		paragraph = firstParagraph(doc.Selection)
	}

	return textutil.TruncateWords(paragraph, e.opts.DescriptionMaxLen)
}

// ExtractFirstParagraph returns the text of the first non-empty paragraph of
// the main content as detected by readability, or "" when detection fails.
func ExtractFirstParagraph(htmlContent string, pageURL *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(htmlContent), pageURL)
	if err != nil || article.Content == "" {
		return ""
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	return firstParagraph(content.Selection)
}

func firstParagraph(s *goquery.Selection) string {
	paragraph := ""
	s.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		paragraph = textutil.NormalizeSpace(p.Text())
		return paragraph == ""
	})
	return paragraph
}

func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf("meta[property=%q]", property)).First().Attr("content")
	return textutil.NormalizeSpace(content)
}

func metaName(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf("meta[name=%q]", name)).First().Attr("content")
	return textutil.NormalizeSpace(content)
}
