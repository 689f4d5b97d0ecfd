package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching path. The parent directory is watched rather
// than the file so that editors which replace the file on save are seen.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "resolving config path").
			WithContext("path", path)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "creating watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "watching config dir").
			WithContext("path", abs)
	}
	return &Watcher{path: abs, watcher: fw}, nil
}

// Run delivers a freshly loaded config (or the load error) to fn after every
// write to the file. It blocks until ctx is done and then closes the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(*Config, error)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			fn(LoadFromPath(w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fn(nil, apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "watching config"))
		}
	}
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
