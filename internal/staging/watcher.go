package staging

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"photocat/internal/fsutil"
)

// Watcher monitors the staging directory and emits asset paths that need
// (re-)extraction. Create and write events on assets and sidecars are
// debounced so a file being copied in does not fire per write chunk.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	log      *slog.Logger

	// Batches receives debounced sets of asset paths.
	Batches chan []string

	done chan struct{}
}

// NewWatcher prepares a watcher over dir. A zero debounce defaults to
// two seconds, long enough for typical card-offload copies to settle.
func NewWatcher(dir string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		debounce: debounce,
		log:      log,
		Batches:  make(chan []string, 8),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory and begins event processing.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("watching staging directory", "dir", w.dir)
	go w.loop()
	return nil
}

// Stop ends processing and closes the batch channel.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.Batches)

	pending := make(map[string]struct{})
	var flush <-chan time.Time

	emit := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = make(map[string]struct{})
		flush = nil
		select {
		case w.Batches <- batch:
		default:
			w.log.Warn("batch channel full, dropping batch", "assets", len(batch))
		}
	}

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				emit()
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			asset := w.assetFor(event.Name)
			if asset == "" {
				continue
			}
			pending[asset] = struct{}{}
			flush = time.After(w.debounce)

		case <-flush:
			emit()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				emit()
				return
			}
			w.log.Error("staging watcher error", "error", err)

		case <-w.done:
			emit()
			return
		}
	}
}

// assetFor maps a filesystem event path to the asset it concerns:
// the file itself for images, the annotated asset for sidecars.
func (w *Watcher) assetFor(path string) string {
	switch {
	case fsutil.IsAssetFile(path):
		return path
	case fsutil.IsSidecar(path):
		return ResolveSidecarAsset(path)
	}
	return ""
}
