package metrics

import (
	"fmt"
	"time"

	"sitemap-feeds/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one generator run in its own registry
type Recorder struct {
	registry *prometheus.Registry

	ArticlesScraped *prometheus.CounterVec
	ScrapeDuration  prometheus.Histogram
	SourceURLs      prometheus.Gauge
	ItemsRendered   *prometheus.GaugeVec
	RunDuration     prometheus.Gauge
	LastRun         prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		ArticlesScraped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feeds_articles_scraped_total",
				Help: "Total number of post pages scraped",
			},
			[]string{"status", "reason"},
		),

		ScrapeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feeds_scrape_duration_seconds",
				Help:    "Post page scrape duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		SourceURLs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "feeds_source_urls",
				Help: "Number of post URLs read from the source",
			},
		),

		ItemsRendered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "feeds_items_rendered",
				Help: "Number of entries written per output document",
			},
			[]string{"feed"},
		),

		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "feeds_run_duration_seconds",
				Help: "Duration of the last generator run",
			},
		),

		LastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "feeds_last_run_timestamp_seconds",
				Help: "Unix time the last generator run finished",
			},
		),
	}
}

// ObserveScrape records one scrape result
func (r *Recorder) ObserveScrape(result domain.ScrapeResult, duration time.Duration) {
	status := "ok"
	if result.Degraded {
		status = "degraded"
	}
	r.ArticlesScraped.WithLabelValues(status, string(result.Reason)).Inc()
	r.ScrapeDuration.Observe(duration.Seconds())
}

// ObserveRun records the run duration and completion time
func (r *Recorder) ObserveRun(started, finished time.Time) {
	r.RunDuration.Set(finished.Sub(started).Seconds())
	r.LastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the metrics for the node_exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
