package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "FEEDS"

// DefaultFiles are read in order when Load is given no files; later files
// override earlier ones and missing files are ignored.
var DefaultFiles = []string{"./feeds.hcl", "./feeds.local.hcl"}

var (
	ErrInvalidURL           = errors.New("invalid URL")
	ErrInvalidSourceKind    = errors.New("invalid source kind")
	ErrInvalidPattern       = errors.New("invalid post URL pattern")
	ErrInvalidConcurrency   = errors.New("concurrency must be positive")
	ErrInvalidLimit         = errors.New("limit must be positive")
	ErrInvalidDuration      = errors.New("duration must be positive")
	ErrInvalidScrapeMode    = errors.New("invalid scrape mode")
	ErrInvalidClientProfile = errors.New("invalid client profile")
	ErrMissingValue         = errors.New("missing required value")
)

// Config is the run configuration. It is built once by Load and must not be
// modified afterwards.
type Config struct {
	SitemapURL     string `hcl:"sitemap_url" env:"SITEMAP_URL" yaml:"sitemap_url" default:"https://example.com/sitemap.xml"`
	SourceKind     string `hcl:"source_kind" env:"SOURCE_KIND" yaml:"source_kind" default:"sitemap"`
	Source         string `hcl:"source" env:"SOURCE" yaml:"source,omitempty"`
	MaxURLs        int    `hcl:"max_urls" env:"MAX_URLS" yaml:"max_urls" default:"0"`
	PostURLPattern string `hcl:"post_url_pattern" env:"POST_URL_PATTERN" yaml:"post_url_pattern" default:"/\\d{4}/\\d{2}/[^/]+/?$"`

	SiteURL           string `hcl:"site_url" env:"SITE_URL" yaml:"site_url" default:"https://example.com"`
	PublicationName   string `hcl:"publication_name" env:"PUBLICATION_NAME" yaml:"publication_name" default:"Example News"`
	RSSLanguage       string `hcl:"rss_language" env:"RSS_LANGUAGE" yaml:"rss_language" default:"en-us"`
	NewsLanguage      string `hcl:"news_language" env:"NEWS_LANGUAGE" yaml:"news_language" default:"en"`
	FeedSelfURL       string `hcl:"feed_self_url" env:"FEED_SELF_URL" yaml:"feed_self_url" default:"https://example.com/rss.xml"`
	FeedDescription   string `hcl:"feed_description" env:"FEED_DESCRIPTION" yaml:"feed_description" default:"Latest posts"`
	ChannelLogoURL    string `hcl:"channel_logo_url" env:"CHANNEL_LOGO_URL" yaml:"channel_logo_url,omitempty"`
	ChannelLogoWidth  int    `hcl:"channel_logo_width" env:"CHANNEL_LOGO_WIDTH" yaml:"channel_logo_width" default:"144"`
	ChannelLogoHeight int    `hcl:"channel_logo_height" env:"CHANNEL_LOGO_HEIGHT" yaml:"channel_logo_height" default:"144"`

	MaxRSSItems   int           `hcl:"max_rss_items" env:"MAX_RSS_ITEMS" yaml:"max_rss_items" default:"50"`
	RSSTTLMinutes int           `hcl:"rss_ttl" env:"RSS_TTL" yaml:"rss_ttl" default:"60"`
	NewsWindow    time.Duration `hcl:"news_window" env:"NEWS_WINDOW" yaml:"news_window" default:"48h"`

	RequestTimeout    time.Duration `hcl:"request_timeout" env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"15s"`
	Concurrency       int           `hcl:"concurrency" env:"CONCURRENCY" yaml:"concurrency" default:"8"`
	ScrapeMode        string        `hcl:"scrape_mode" env:"SCRAPE_MODE" yaml:"scrape_mode" default:"pool"`
	BatchPause        time.Duration `hcl:"batch_pause" env:"BATCH_PAUSE" yaml:"batch_pause" default:"300ms"`
	ImageSitemap      bool          `hcl:"image_sitemap" env:"IMAGE_SITEMAP" yaml:"image_sitemap" default:"true"`
	MaxImagesPerPage  int           `hcl:"max_images_per_page" env:"MAX_IMAGES_PER_PAGE" yaml:"max_images_per_page" default:"20"`
	DescriptionMaxLen int           `hcl:"description_max_len" env:"DESCRIPTION_MAX_LEN" yaml:"description_max_len" default:"220"`
	ClientProfile     string        `hcl:"client_profile" env:"CLIENT_PROFILE" yaml:"client_profile" default:"browser"`

	OutputDir string `hcl:"output_dir" env:"OUTPUT_DIR" yaml:"output_dir" default:"."`
	LogLevel  string `hcl:"log_level" env:"LOG_LEVEL" yaml:"log_level" default:"info"`

	Archive ArchiveConfig `hcl:"archive" env:"ARCHIVE" yaml:"archive"`
	NATS    NATSConfig    `hcl:"nats" env:"NATS" yaml:"nats"`
	Metrics MetricsConfig `hcl:"metrics" env:"METRICS" yaml:"metrics"`
}

// ArchiveConfig selects the optional article export sinks. A sink is
// enabled when its connection setting is non-empty.
type ArchiveConfig struct {
	MongoURI             string        `hcl:"mongo_uri" env:"MONGO_URI" yaml:"mongo_uri,omitempty"`
	MongoDatabase        string        `hcl:"mongo_database" env:"MONGO_DATABASE" yaml:"mongo_database" default:"feeds"`
	MongoCollection      string        `hcl:"mongo_collection" env:"MONGO_COLLECTION" yaml:"mongo_collection" default:"articles"`
	PostgresDSN          string        `hcl:"postgres_dsn" env:"POSTGRES_DSN" yaml:"postgres_dsn,omitempty"`
	PostgresTable        string        `hcl:"postgres_table" env:"POSTGRES_TABLE" yaml:"postgres_table" default:"feed_articles"`
	PostgresMaxOpenConns int           `hcl:"postgres_max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS" yaml:"postgres_max_open_conns" default:"4"`
	PostgresMaxIdleConns int           `hcl:"postgres_max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS" yaml:"postgres_max_idle_conns" default:"2"`
	PostgresConnMaxIdle  time.Duration `hcl:"postgres_conn_max_idle" env:"POSTGRES_CONN_MAX_IDLE" yaml:"postgres_conn_max_idle" default:"5m"`
	PostgresConnMaxLife  time.Duration `hcl:"postgres_conn_max_life" env:"POSTGRES_CONN_MAX_LIFE" yaml:"postgres_conn_max_life" default:"30m"`
	SupabaseURL          string        `hcl:"supabase_url" env:"SUPABASE_URL" yaml:"supabase_url,omitempty"`
	SupabaseKey          string        `hcl:"supabase_key" env:"SUPABASE_KEY" yaml:"supabase_key,omitempty"`
	SupabaseTable        string        `hcl:"supabase_table" env:"SUPABASE_TABLE" yaml:"supabase_table" default:"feed_articles"`
	// Timeout bounds connecting to the sinks and each save
	Timeout              time.Duration `hcl:"timeout" env:"TIMEOUT" yaml:"timeout" default:"30s"`
}

// NATSConfig configures the "feeds generated" event. Empty URL disables it.
type NATSConfig struct {
	URL          string        `hcl:"url" env:"URL" yaml:"url,omitempty"`
	Subject      string        `hcl:"subject" env:"SUBJECT" yaml:"subject" default:"feeds.generated"`
	FlushTimeout time.Duration `hcl:"flush_timeout" env:"FLUSH_TIMEOUT" yaml:"flush_timeout" default:"5s"`
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	// TextfilePath receives the run metrics in text exposition format; empty disables it
	TextfilePath string `hcl:"textfile_path" env:"TEXTFILE_PATH" yaml:"textfile_path,omitempty"`
	// ListenAddr is used by feedserve
	ListenAddr string `hcl:"listen_addr" env:"LISTEN_ADDR" yaml:"listen_addr" default:":8080"`
}

// Load reads defaults, then the given HCL files (DefaultFiles when none are
// given), then FEEDS_* environment variables, and validates the result.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        EnvPrefix,
		SkipFlags:        true,
		AllowUnknownEnvs: true,
		MergeFiles:       true,
		Files:            files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	switch c.SourceKind {
	case "sitemap", "rss":
		if err := checkURL("SOURCE", c.SourceLocation()); err != nil {
			return err
		}
	case "file":
		if c.SourceLocation() == "" {
			return fmt.Errorf("%w: SOURCE", ErrMissingValue)
		}
	default:
		return fmt.Errorf("%w: SOURCE_KIND %q", ErrInvalidSourceKind, c.SourceKind)
	}

	if _, err := regexp.Compile(c.PostURLPattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	for name, value := range map[string]string{
		"SITE_URL":      c.SiteURL,
		"FEED_SELF_URL": c.FeedSelfURL,
	} {
		if err := checkURL(name, value); err != nil {
			return err
		}
	}
	if c.ChannelLogoURL != "" {
		if err := checkURL("CHANNEL_LOGO_URL", c.ChannelLogoURL); err != nil {
			return err
		}
	}

	if c.PublicationName == "" {
		return fmt.Errorf("%w: PUBLICATION_NAME", ErrMissingValue)
	}
	if c.MaxURLs < 0 {
		return fmt.Errorf("%w: MAX_URLS=%d", ErrInvalidLimit, c.MaxURLs)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: CONCURRENCY=%d", ErrInvalidConcurrency, c.Concurrency)
	}

	for name, value := range map[string]int{
		"MAX_RSS_ITEMS":       c.MaxRSSItems,
		"RSS_TTL":             c.RSSTTLMinutes,
		"MAX_IMAGES_PER_PAGE": c.MaxImagesPerPage,
		"DESCRIPTION_MAX_LEN": c.DescriptionMaxLen,
	} {
		if value <= 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidLimit, name, value)
		}
	}

	for name, value := range map[string]time.Duration{
		"NEWS_WINDOW":        c.NewsWindow,
		"REQUEST_TIMEOUT":    c.RequestTimeout,
		"ARCHIVE_TIMEOUT":    c.Archive.Timeout,
		"NATS_FLUSH_TIMEOUT": c.NATS.FlushTimeout,
	} {
		if value <= 0 {
			return fmt.Errorf("%w: %s=%s", ErrInvalidDuration, name, value)
		}
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("%w: BATCH_PAUSE=%s", ErrInvalidDuration, c.BatchPause)
	}

	switch c.ScrapeMode {
	case "pool", "batch":
	default:
		return fmt.Errorf("%w: SCRAPE_MODE %q", ErrInvalidScrapeMode, c.ScrapeMode)
	}

	switch c.ClientProfile {
	case "browser", "cloudflare", "default":
	default:
		return fmt.Errorf("%w: CLIENT_PROFILE %q", ErrInvalidClientProfile, c.ClientProfile)
	}

	return nil
}

// SourceLocation is where post URLs are read from: Source if set, else SitemapURL.
func (c *Config) SourceLocation() string {
	if c.Source != "" {
		return c.Source
	}
	return c.SitemapURL
}

// PostPattern returns the compiled PostURLPattern. Validate must have passed.
func (c *Config) PostPattern() *regexp.Regexp {
	return regexp.MustCompile(c.PostURLPattern)
}

// Dump renders the effective configuration as YAML with secrets masked.
func (c *Config) Dump() (string, error) {
	masked := *c
	masked.Archive.MongoURI = maskURL(masked.Archive.MongoURI)
	masked.Archive.PostgresDSN = maskURL(masked.Archive.PostgresDSN)
	if masked.Archive.SupabaseKey != "" {
		masked.Archive.SupabaseKey = "***"
	}

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}

func checkURL(name, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s %q", ErrInvalidURL, name, value)
	}
	return nil
}

// maskURL hides the password of a connection URL
func maskURL(value string) string {
	parsed, err := url.Parse(value)
	if value == "" || err != nil {
		return value
	}
	return parsed.Redacted()
}
