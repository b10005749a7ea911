package notify

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FeedsGenerated is published after the output files are written
type FeedsGenerated struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Version     string    `json:"version"`
	SiteURL     string    `json:"site_url"`
	Files       []string  `json:"files"`
	Articles    int       `json:"articles"`
	Degraded    int       `json:"degraded"`
	RSSItems    int       `json:"rss_items"`
	NewsItems   int       `json:"news_items"`
	ImagePages  int       `json:"image_pages"`
	DurationSec float64   `json:"duration_seconds"`
}

// Publisher announces finished runs
type Publisher interface {
	Publish(event FeedsGenerated) error
	Close()
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL          string
	Subject      string
	FlushTimeout time.Duration
}

// NATSPublisher publishes run events to a NATS subject
type NATSPublisher struct {
	conn         *nats.Conn
	subject      string
	flushTimeout time.Duration
}

// NewNATSPublisher connects to the NATS server
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("sitemap-feeds"),
		nats.Timeout(5*time.Second),
		nats.NoReconnect(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	return &NATSPublisher{
		conn:         nc,
		subject:      cfg.Subject,
		flushTimeout: cfg.FlushTimeout,
	}, nil
}

// Encode serializes an event as JSON
func Encode(event FeedsGenerated) ([]byte, error) {
	if event.Source == "" {
		event.Source = "sitemap-feeds"
	}
	if event.Version == "" {
		event.Version = "1.0"
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

// Publish sends the event and waits until the server has received it
func (p *NATSPublisher) Publish(event FeedsGenerated) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}

	if err := p.conn.FlushTimeout(p.flushTimeout); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
