package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitemap-feeds/pkg/config"
	"sitemap-feeds/pkg/domain"
)

// Record is one archived article together with the run that produced it
type Record struct {
	RunID        string     `bson:"run_id" json:"run_id"`
	URL          string     `bson:"url" json:"url"`
	Title        string     `bson:"title" json:"title"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
	PublishedAt  *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	ModifiedAt   *time.Time `bson:"modified_at,omitempty" json:"modified_at,omitempty"`
	PrimaryImage string     `bson:"primary_image,omitempty" json:"primary_image,omitempty"`
	Images       []string   `bson:"images" json:"images"`
	Degraded     bool       `bson:"degraded" json:"degraded"`
	Reason       string     `bson:"reason,omitempty" json:"reason,omitempty"`
	ArchivedAt   time.Time  `bson:"archived_at" json:"archived_at"`
}

// NewRecords converts scrape results into archive records stamped with runID
// and archivedAt.
func NewRecords(runID string, results []domain.ScrapeResult, archivedAt time.Time) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		a := r.Article
		images := a.Images
		if images == nil {
			images = []string{}
		}
		records = append(records, Record{
			RunID:        runID,
			URL:          a.URL,
			Title:        a.Title,
			Description:  a.Description,
			PublishedAt:  a.PublishedAt,
			ModifiedAt:   a.ModifiedAt,
			PrimaryImage: a.PrimaryImage,
			Images:       images,
			Degraded:     r.Degraded,
			Reason:       string(r.Reason),
			ArchivedAt:   archivedAt.UTC(),
		})
	}
	return records
}

// Sink stores records. Records are upserted by URL; nothing is read back.
type Sink interface {
	Name() string
	Save(ctx context.Context, records []Record) error
	Close(ctx context.Context) error
}

// Multi fans records out to several sinks
type Multi struct {
	sinks []Sink
}

// NewMulti combines sinks into one
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Len returns the number of configured sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Name implements Sink
func (m *Multi) Name() string {
	return "multi"
}

// Save writes records to every sink. A failing sink does not stop the
// others; all failures are joined into the returned error.
func (m *Multi) Save(ctx context.Context, records []Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Save(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// FromConfig connects every sink enabled in cfg. Sinks that connected are
// returned even when another one failed; the error describes the failures.
func FromConfig(ctx context.Context, cfg config.ArchiveConfig) (*Multi, error) {
	var (
		sinks []Sink
		errs  []error
	)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if cfg.MongoURI != "" {
		sink := NewMongoSink(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err := sink.Connect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo: %w", err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	if cfg.PostgresDSN != "" {
		sink := NewPostgresSink(PostgresConfigFrom(cfg))
		if err := sink.Connect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	if cfg.SupabaseURL != "" {
		sink, err := NewSupabaseSink(SupabaseConfig{URL: cfg.SupabaseURL, Key: cfg.SupabaseKey, Table: cfg.SupabaseTable})
		if err != nil {
			errs = append(errs, fmt.Errorf("supabase: %w", err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	return NewMulti(sinks...), errors.Join(errs...)
}
