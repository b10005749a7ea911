package worker

import (
	"context"
	"sync/atomic"
	"time"

	"sitemap-feeds/pkg/domain"
	"sitemap-feeds/pkg/logger"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Runner scrapes a list of URLs with bounded concurrency. Results are
// returned in input order whatever the completion order.
type Runner struct {
	opts Options
	log  *logger.Logger
}

// NewRunner creates a runner, filling unset options with defaults
func NewRunner(opts Options, log *logger.Logger) *Runner {
	if opts.Mode == "" {
		opts.Mode = ModePool
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.BatchPause < 0 {
		opts.BatchPause = 0
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{opts: opts, log: log.With("component", "runner")}
}

// Run scrapes every URL with fn and returns one result per URL, in order.
// Once ctx is cancelled no new URL is started; the remaining slots are
// filled with degraded fetch_failed results.
func (r *Runner) Run(ctx context.Context, urls []string, fn ScrapeFunc) []domain.ScrapeResult {
	results := make([]domain.ScrapeResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	w := &worker{fn: fn, results: results, onResult: r.opts.OnResult}
	start := time.Now()

	switch r.opts.Mode {
	case ModeBatch:
		r.runBatches(ctx, urls, w)
	default:
		r.runPool(ctx, urls, w)
	}

	degraded := lo.CountBy(results, func(res domain.ScrapeResult) bool { return res.Degraded })
	r.log.Info("scrape completed",
		"mode", r.opts.Mode,
		"total", len(urls),
		"degraded", degraded,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return results
}

func (r *Runner) runPool(ctx context.Context, urls []string, w *worker) {
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	var completed atomic.Int64
	total := len(urls)

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			// slots before i are dispatched; wait for them before filling the rest
			_ = g.Wait()
			fillUndispatched(w.results, urls, i, err)
			r.log.Warn("scrape cancelled", "dispatched", i, "total", total, "error", err)
			return
		}

		g.Go(func() error {
			w.process(ctx, i, url)
			if n := completed.Add(1); n%int64(r.opts.ProgressEvery) == 0 {
				r.log.Info("progress", "completed", n, "total", total)
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (r *Runner) runBatches(ctx context.Context, urls []string, w *worker) {
	batches := lo.Chunk(urls, r.opts.Concurrency)
	offset := 0

	for n, batch := range batches {
		if err := ctx.Err(); err != nil {
			fillUndispatched(w.results, urls, offset, err)
			r.log.Warn("scrape cancelled", "dispatched", offset, "total", len(urls), "error", err)
			return
		}

		var g errgroup.Group
		for j, url := range batch {
			slot := offset + j
			g.Go(func() error {
				w.process(ctx, slot, url)
				return nil
			})
		}
		_ = g.Wait()

		offset += len(batch)
		r.log.Info("batch completed", "batch", n+1, "batches", len(batches), "completed", offset, "total", len(urls))

		if n < len(batches)-1 && r.opts.BatchPause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.opts.BatchPause):
			}
		}
	}
}
