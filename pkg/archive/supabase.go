package archive

import (
	"context"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds the REST API settings of a Supabase project.
type SupabaseConfig struct {
	// URL is the project URL, e.g. "https://[project-ref].supabase.co"
	URL string
	// Key is the API key; use the service_role key for server-side writes
	Key   string
	Table string
}

// SupabaseSink upserts records through the Supabase REST API
type SupabaseSink struct {
	client *supabase.Client
	table  string
}

// NewSupabaseSink creates the SDK client. No request is made until Save.
func NewSupabaseSink(cfg SupabaseConfig) (*SupabaseSink, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase URL and key are required")
	}
	if cfg.Table == "" {
		cfg.Table = "feed_articles"
	}

	client, err := supabase.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}

	return &SupabaseSink{client: client, table: cfg.Table}, nil
}

// Name implements Sink
func (s *SupabaseSink) Name() string {
	return "supabase"
}

// Save upserts records on the url column
func (s *SupabaseSink) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, _, err := s.client.From(s.table).Upsert(records, "url", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("upsert into %s: %w", s.table, err)
	}
	return nil
}

// Close implements Sink; the REST client holds no connection.
func (s *SupabaseSink) Close(ctx context.Context) error {
	return nil
}
