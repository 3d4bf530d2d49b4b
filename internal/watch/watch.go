// Package watch monitors the knowledge file for external edits so a reload
// can pick them up without restarting the process.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 500 * time.Millisecond

// Knowledge watches path and calls onChange after writes to it settle.
// Watching the parent directory instead of the file itself survives
// editors that replace the file on save. The returned stop function closes
// the watcher; the goroutine also exits when ctx is done.
func Knowledge(ctx context.Context, path string, log *zap.Logger, onChange func()) (func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					fire = timer.C
				} else {
					timer.Reset(debounce)
				}
			case <-fire:
				timer = nil
				fire = nil
				log.Debug("knowledge file changed on disk", zap.String("path", abs))
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("knowledge watcher error", zap.Error(err))
			}
		}
	}()

	return w.Close, nil
}
