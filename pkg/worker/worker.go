package worker

import (
	"context"
	"time"

	"sitemap-feeds/pkg/domain"
)

// Mode selects how the runner schedules work
type Mode string

const (
	// ModePool keeps up to Concurrency scrapes in flight at all times
	ModePool Mode = "pool"
	// ModeBatch runs fixed groups of Concurrency URLs with a pause between groups
	ModeBatch Mode = "batch"
)

const (
	DefaultConcurrency   = 8
	DefaultBatchPause    = 300 * time.Millisecond
	DefaultProgressEvery = 10
)

// ScrapeFunc turns one URL into a result. It must not panic and should
// honour ctx.
type ScrapeFunc func(ctx context.Context, url string) domain.ScrapeResult

// Options configures a Runner
type Options struct {
	Mode        Mode
	Concurrency int
	BatchPause  time.Duration
	// ProgressEvery logs progress after this many completed URLs in pool mode
	ProgressEvery int
	// OnResult, if set, is called after each URL completes. It may be called
	// from several goroutines at once.
	OnResult func(domain.ScrapeResult)
}

// worker runs fn for a single slot and records the outcome
type worker struct {
	fn       ScrapeFunc
	results  []domain.ScrapeResult
	onResult func(domain.ScrapeResult)
}

func (w *worker) process(ctx context.Context, slot int, url string) {
	result := w.fn(ctx, url)
	w.results[slot] = result
	if w.onResult != nil {
		w.onResult(result)
	}
}

// fillUndispatched marks every slot from index start onward as a degraded
// fetch failure caused by err.
func fillUndispatched(results []domain.ScrapeResult, urls []string, start int, err error) {
	for i := start; i < len(urls); i++ {
		results[i] = domain.Degraded(urls[i], domain.ReasonFetchFailed, err)
	}
}
