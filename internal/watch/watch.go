// Package watch processes the files created in a directory tree as they appear.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

// DefaultSettle is how long a new file must stay untouched before it is processed.
const DefaultSettle = 500 * time.Millisecond

var ErrNotDirectory = errors.New("not a directory")

// Runner processes one configuration, like a pipeline.
type Runner interface {
	Run(ctx context.Context, cfg model.Config) error
}

// Watcher runs every supported file created under cfg.Input and writes the result
// at the same relative path under cfg.Output.
type Watcher struct {
	runner Runner
	cfg    model.Config
	log    logrus.FieldLogger
	settle time.Duration
	notify func(input string, err error)
	ready  chan struct{}
}

type Option func(w *Watcher)

func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// WithSettle sets how long a file must stay untouched before it is processed.
func WithSettle(settle time.Duration) Option {
	return func(w *Watcher) {
		w.settle = settle
	}
}

// WithNotify calls fn after each processed file.
func WithNotify(fn func(input string, err error)) Option {
	return func(w *Watcher) {
		w.notify = fn
	}
}

// New creates a watcher. Both cfg.Input and cfg.Output must be existing directories.
func New(runner Runner, cfg model.Config, options ...Option) (*Watcher, error) {
	for _, dir := range []string{cfg.Input, cfg.Output} {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.Wrapf(ErrNotDirectory, "%s: %v", dir, err)
		}
		if !info.IsDir() {
			return nil, errors.Wrapf(ErrNotDirectory, "%s", dir)
		}
	}

	w := &Watcher{
		runner: runner,
		cfg:    cfg.Clone(),
		log:    logrus.StandardLogger(),
		settle: DefaultSettle,
		ready:  make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	w.log = w.log.WithFields(logrus.Fields{"watching": cfg.Input, "output": cfg.Output})

	return w, nil
}

// Ready is closed once the tree is watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. A failing file is logged and does not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "unable to create watcher")
	}
	defer fw.Close()

	pending := make(map[string]time.Time)
	err = w.addTree(fw, w.cfg.Input, pending)
	if err != nil {
		return err
	}
	w.log.Info("Watching for new files")
	close(w.ready)

	ticker := time.NewTicker(max(w.settle/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event, pending)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watch error")
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if w.isOutput(event.Name) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			w.log.WithField("directory", event.Name).Debug("Directory created")
			err := w.addTree(fw, event.Name, pending)
			if err != nil {
				w.log.WithError(err).Warn("Unable to watch directory")
			}
		}
		return
	}

	if !model.IsSupportedFile(event.Name) {
		return
	}
	if _, ok := pending[event.Name]; ok || event.Has(fsnotify.Create) {
		pending[event.Name] = time.Now()
	}
}

// addTree watches dir and its subdirectories. Files already inside a new directory are queued,
// they may have been created before the directory was watched.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string, pending map[string]time.Time) error {
	root := dir == w.cfg.Input
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if w.isOutput(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if !root && model.IsSupportedFile(path) {
				pending[path] = time.Now()
			}
			return nil
		}
		err = fw.Add(path)
		if err != nil {
			return errors.Wrapf(err, "unable to watch %s", path)
		}
		return nil
	})
}

func (w *Watcher) isOutput(path string) bool {
	rel, err := filepath.Rel(w.cfg.Output, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) process(ctx context.Context, path string) {
	rel, err := filepath.Rel(w.cfg.Input, path)
	if err != nil {
		w.log.WithError(err).WithField("input", path).Warn("File outside of watched directory")
		return
	}

	cfg := w.cfg.Clone()
	cfg.Input = path
	cfg.Output = filepath.Join(w.cfg.Output, rel)

	log := w.log.WithFields(logrus.Fields{"input": cfg.Input, "output": cfg.Output})
	log.Info("New file detected")
	err = w.runner.Run(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Unable to process file")
	}
	if w.notify != nil {
		w.notify(path, err)
	}
}
