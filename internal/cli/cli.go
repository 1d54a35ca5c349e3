package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photocat/internal/catalog"
	"photocat/internal/config"
	"photocat/internal/extract"
	"photocat/internal/logging"
	"photocat/internal/pipeline"
	"photocat/internal/staging"
)

// batchRunner lets tests substitute the extraction pipeline.
type batchRunner interface {
	Run(ctx context.Context, assets []string) *pipeline.Summary
}

// Root wires CLI commands to the extraction pipeline and the catalog.
type Root struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *catalog.Store
	runner batchRunner
}

// NewRoot constructs the CLI root with a real extractor and pipeline.
func NewRoot(cfg *config.Config, logger *slog.Logger, store *catalog.Store) *Root {
	extractor := extract.New(extract.Options{
		MaxIFDDepth:     cfg.Extraction.MaxIFDDepth,
		KeepUnknownTags: cfg.Extraction.KeepUnknownTags,
	}, logger)
	runner := pipeline.New(extractor, pipeline.Options{
		Workers:      cfg.Extraction.Workers,
		AssetTimeout: cfg.Extraction.AssetTimeout(),
	}, logger)
	return &Root{
		cfg:    cfg,
		log:    logger,
		store:  store,
		runner: runner,
	}
}

// runScan discovers staged assets, skips ones the catalog already has at
// the same mtime, and extracts the rest. refresh forces re-extraction of
// everything.
func (r *Root) runScan(ctx context.Context, dir string, refresh bool) error {
	assets, err := staging.Discover(dir)
	if err != nil {
		return fmt.Errorf("discover staging directory: %w", err)
	}

	known, err := r.store.KnownModTimes()
	if err != nil {
		return fmt.Errorf("read catalog state: %w", err)
	}

	changed := staging.FilterChanged(assets, known, refresh)
	r.log.Info("staging scan",
		"dir", dir,
		"assets", len(assets),
		"changed", len(changed),
		"refresh", refresh,
	)
	if len(changed) == 0 {
		fmt.Println("Catalog is up to date.")
		return nil
	}

	return r.runBatch(ctx, staging.Paths(changed))
}

// runBatch extracts one set of asset paths and writes the results.
func (r *Root) runBatch(ctx context.Context, paths []string) error {
	start := time.Now()
	sum := r.runner.Run(ctx, paths)

	var writeErrs int
	for _, rec := range sum.Succeeded {
		if err := r.store.Upsert(rec, sum.RunID); err != nil {
			writeErrs++
			r.log.Error("catalog write failed", "asset", rec.Path, "error", err)
		}
	}
	for _, f := range sum.Failed {
		logging.LogAssetFailure(r.log, sum.RunID, f.Asset, f.Kind.String(), f.Err)
	}

	if err := r.store.RecordRun(sum.RunID, start, sum.Duration, len(sum.Succeeded), len(sum.Failed)); err != nil {
		r.log.Error("run summary write failed", "run_id", sum.RunID, "error", err)
	}
	logging.LogRunComplete(r.log, sum.RunID, sum.Duration, len(sum.Succeeded), len(sum.Failed))

	fmt.Printf("Extracted %d asset(s), %d failed (run %s, %s)\n",
		len(sum.Succeeded), len(sum.Failed), sum.RunID, sum.Duration.Round(time.Millisecond))
	for _, f := range sum.Failed {
		fmt.Printf("  FAILED %s: %s\n", f.Asset, f.Kind)
	}
	if writeErrs > 0 {
		return fmt.Errorf("%d record(s) could not be written to the catalog", writeErrs)
	}
	return nil
}

// runWatch does an initial scan and then follows filesystem events,
// re-extracting assets as they land in the staging directory.
func (r *Root) runWatch(ctx context.Context, dir string, refresh bool) error {
	if err := r.runScan(ctx, dir, refresh); err != nil {
		return err
	}

	w, err := staging.NewWatcher(dir, r.cfg.Watch.Debounce(), r.log)
	if err != nil {
		return fmt.Errorf("create staging watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start staging watcher: %w", err)
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Batches:
			if !ok {
				return nil
			}
			if err := r.runBatch(ctx, batch); err != nil {
				r.log.Error("watch batch failed", "error", err)
			}
		}
	}
}

// runRecent prints the newest cataloged photos.
func (r *Root) runRecent(limit int) error {
	entries, err := r.store.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	for _, e := range entries {
		captured := "-"
		if e.CaptureTime != nil {
			captured = e.CaptureTime.Format("2006-01-02 15:04:05")
		}
		rating := "-"
		if e.Rating != nil {
			rating = fmt.Sprintf("%d*", *e.Rating)
		}
		fmt.Printf("%-19s  %-4s %-22s %-8s %s\n",
			captured, rating, e.CameraModel, e.Shutter, e.Path)
	}
	return nil
}
