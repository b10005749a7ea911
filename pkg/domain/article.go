package domain

import "time"

// Article is the metadata scraped from a single post page.
//
// URL is always absolute and Title is never empty: when a page gives no
// better signal, Title is the URL itself. Optional timestamps are nil when
// the page carried no parseable value.
type Article struct {
	URL          string     `bson:"url" json:"url"`
	Title        string     `bson:"title" json:"title"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
	PublishedAt  *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	ModifiedAt   *time.Time `bson:"modified_at,omitempty" json:"modified_at,omitempty"`
	PrimaryImage string     `bson:"primary_image,omitempty" json:"primary_image,omitempty"`
	Images       []string   `bson:"images,omitempty" json:"images,omitempty"`
}

// NewDegradedArticle returns the minimal record used when a page could not be
// fetched or parsed.
func NewDegradedArticle(url string) Article {
	return Article{
		URL:   url,
		Title: url,
	}
}

// LastMod is the best available "last changed" time: the modified time if
// known, else the published time, else nil.
func (a Article) LastMod() *time.Time {
	if a.ModifiedAt != nil {
		return a.ModifiedAt
	}
	return a.PublishedAt
}

// HasImages reports whether the page yielded at least one in-content image.
func (a Article) HasImages() bool {
	return len(a.Images) > 0
}
