package content

import (
	"net/url"
	"strings"

	"sitemap-feeds/pkg/filter"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// ResolveURL resolves ref against base and returns it only if the result is
// an absolute http(s) URL.
func ResolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed).String()
	if !filter.IsAbsoluteHTTP(resolved) {
		return ""
	}
	return resolved
}

// contentRoot is the element images are collected from: article, else main,
// else body.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"article", "main"} {
		if s := doc.Find(selector).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body")
}

func contentImages(doc *goquery.Document, base *url.URL, limit int) []string {
	var images []string
	contentRoot(doc).Find("img[src]").Each(func(i int, s *goquery.Selection) {
		if resolved := ResolveURL(base, s.AttrOr("src", "")); resolved != "" {
			images = append(images, resolved)
		}
	})

	images = lo.Uniq(images)
	if len(images) > limit {
		images = images[:limit]
	}
	return images
}

func primaryImage(doc *goquery.Document, base *url.URL, images []string) string {
	candidates := []string{
		metaProperty(doc, "og:image:secure_url"),
		metaProperty(doc, "og:image"),
		metaName(doc, "twitter:image"),
		metaProperty(doc, "twitter:image"),
		doc.Find(`link[rel="image_src"]`).First().AttrOr("href", ""),
	}

	for _, c := range candidates {
		if resolved := ResolveURL(base, c); resolved != "" {
			return resolved
		}
	}

	if len(images) > 0 {
		return images[0]
	}
	return ""
}
