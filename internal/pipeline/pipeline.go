// Package pipeline drives metadata extraction across a batch of staged
// assets with a bounded worker pool. Individual asset failures are
// collected, never propagated: one damaged file cannot poison a batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"photocat/internal/extract"
	"photocat/internal/record"
)

// Extractor is the per-asset worker dependency.
type Extractor interface {
	Extract(ctx context.Context, path string) (*record.Record, error)
}

// Options tunes a run.
type Options struct {
	// Workers is the pool size; zero or negative means GOMAXPROCS.
	Workers int
	// AssetTimeout bounds each single extraction; zero disables it.
	AssetTimeout time.Duration
}

// Failure is one asset that did not produce a record.
type Failure struct {
	Asset string
	Kind  extract.Kind
	Err   error
}

// Summary partitions a finished run. Both slices are ordered by asset
// path so reruns compare cleanly.
type Summary struct {
	RunID     string
	Succeeded []*record.Record
	Failed    []Failure
	Duration  time.Duration
}

// Runner executes extraction batches.
type Runner struct {
	extractor Extractor
	opts      Options
	log       *slog.Logger
}

// New builds a runner around an extractor. A nil logger falls back to
// slog.Default.
func New(extractor Extractor, opts Options, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{extractor: extractor, opts: opts, log: log}
}

// Run extracts every asset and returns the partitioned summary. The
// context cancels the whole batch; assets cut off mid-run are reported
// as timeout failures rather than silently dropped.
func (r *Runner) Run(ctx context.Context, assets []string) *Summary {
	start := time.Now()
	sum := &Summary{RunID: uuid.NewString()}
	log := r.log.With("run_id", sum.RunID)
	log.Info("extraction run starting", "assets", len(assets), "workers", r.opts.Workers)

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for asset := range jobs {
				rec, err := r.extractOne(ctx, asset)
				mu.Lock()
				if err != nil {
					f := toFailure(asset, err)
					sum.Failed = append(sum.Failed, f)
					mu.Unlock()
					log.Warn("asset failed",
						"worker", worker, "asset", asset,
						"kind", f.Kind.String(), "error", err)
					continue
				}
				sum.Succeeded = append(sum.Succeeded, rec)
				mu.Unlock()
				log.Debug("asset extracted", "worker", worker, "asset", asset)
			}
		}(i)
	}

	cancelledAt := -1
	for i, asset := range assets {
		select {
		case jobs <- asset:
			continue
		case <-ctx.Done():
			cancelledAt = i
		}
		break
	}
	close(jobs)
	wg.Wait()

	if cancelledAt >= 0 {
		for _, rest := range assets[cancelledAt:] {
			sum.Failed = append(sum.Failed, toFailure(rest, ctx.Err()))
		}
	}

	sort.Slice(sum.Succeeded, func(i, j int) bool {
		return sum.Succeeded[i].Path < sum.Succeeded[j].Path
	})
	sort.Slice(sum.Failed, func(i, j int) bool {
		return sum.Failed[i].Asset < sum.Failed[j].Asset
	})

	sum.Duration = time.Since(start)
	log.Info("extraction run finished",
		"succeeded", len(sum.Succeeded),
		"failed", len(sum.Failed),
		"duration", sum.Duration)
	return sum
}

// extractOne applies the per-asset timeout and keeps worker goroutines
// alive through extractor panics.
func (r *Runner) extractOne(ctx context.Context, asset string) (rec *record.Record, err error) {
	if r.opts.AssetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.AssetTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			rec = nil
			err = &extract.Error{
				Kind:  extract.KindIO,
				Asset: asset,
				Err:   errPanic{p},
			}
		}
	}()
	return r.extractor.Extract(ctx, asset)
}

type errPanic struct{ v any }

func (e errPanic) Error() string { return fmt.Sprintf("extractor panic: %v", e.v) }

func toFailure(asset string, err error) Failure {
	var ee *extract.Error
	if errors.As(err, &ee) {
		return Failure{Asset: asset, Kind: ee.Kind, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Failure{Asset: asset, Kind: extract.KindTimeout, Err: err}
	}
	return Failure{Asset: asset, Kind: extract.KindIO, Err: err}
}
