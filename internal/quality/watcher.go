package quality

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/config"
	"github.com/Faultbox/rustsim/internal/logger"
)

// Watcher reloads the quality section of a config file into a Policy
// whenever the file is written or replaced.
type Watcher struct {
	policy *Policy
	path   string

	fsw     *fsnotify.Watcher
	done    chan struct{}
	reloads chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch starts watching path. The parent directory is watched so editors
// that save by rename are still picked up.
func Watch(path string, policy *Policy) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("quality: empty watch path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		policy:  policy,
		path:    abs,
		fsw:     fsw,
		done:    make(chan struct{}),
		reloads: make(chan struct{}, 1),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Reloaded receives a value after every successful reload. Slow readers
// miss intermediate notifications, never the latest one.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloads
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	log := logger.Named("quality")

	for {
		select {
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				log.Warn("quality reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			log.Info("quality reloaded",
				zap.Int("resolution", w.policy.Resolution()),
				zap.Int("throughput", w.policy.Throughput()),
				zap.Bool("soft_rust", w.policy.SoftRust()),
			)
			select {
			case w.reloads <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("quality watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

// reload decodes the file on top of the current policy values so a file
// that only sets one key leaves the others untouched.
func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	cfg := config.Config{Quality: config.QualityConfig{
		ObjectUpdatesPerFrame: w.policy.Throughput(),
		VolumeResolution:      w.policy.Resolution(),
		SoftRust:              w.policy.SoftRust(),
	}}
	if err := config.Decode(&cfg, w.path, data); err != nil {
		return err
	}

	w.policy.Apply(cfg.Quality)
	return nil
}
