// =============================================================================
// XML to JSON Converter - Directory Watch
// =============================================================================
//
// This module converts files as they appear in a directory, using fsnotify.
//
// EVENTS:
//   Create and write events on visible regular files matching the patterns
//   schedule a conversion. Hidden files (editor and copy temporaries) and
//   chmod/remove events are ignored. With Recursive, directories created
//   later are watched too.
//
// DEBOUNCE:
//   Every event for a path restarts its timer. The file is converted once,
//   after it has been quiet for the debounce period.
//
// =============================================================================

package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchOptions contains options for Watch.
type WatchOptions struct {
	// Patterns select the files to convert.
	// Default: ["*.xml"]
	Patterns []string

	// Recursive also watches subdirectories, including ones created later.
	Recursive bool

	// Debounce is how long a file must stay quiet before it is converted,
	// so a file being copied in is converted once, after the last write.
	// Default: 500ms
	Debounce time.Duration
}

// Watch converts files under dir as they are created or modified, until ctx
// is done. onResult receives every outcome; it runs on the watch goroutine.
//
// PARAMETERS:
//   - ctx: Stops watching when done.
//   - dir: The directory to watch.
//   - opts: Patterns, recursion and debounce period.
//   - onResult: Called once per converted, skipped or failed file. May be nil.
//
// RETURNS:
//   - An error when the watcher cannot be created or dir cannot be watched.
//   - nil once ctx is done.
func (r *Runner) Watch(ctx context.Context, dir string, opts WatchOptions, onResult func(Result)) error {
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{"*.xml"}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := r.addWatch(w, dir, opts.Recursive); err != nil {
		return err
	}
	r.logger.Info("watching", zap.String("dir", dir), zap.Strings("patterns", opts.Patterns))

	deb := newDebouncer(opts.Debounce)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", zap.Error(err))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if opts.Recursive && ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if err := r.addWatch(w, ev.Name, true); err != nil {
					r.logger.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
				}
				continue
			}
			if !watchable(ev, opts.Patterns) {
				continue
			}
			deb.touch(ctx, ev.Name)

		case fired := <-deb.ready:
			if !deb.take(fired) {
				continue
			}
			path := fired.path
			if _, err := os.Stat(path); err != nil {
				continue
			}
			res := r.Process(path)
			if onResult != nil {
				onResult(res)
			}
		}
	}
}

// =============================================================================
// DEBOUNCE
// =============================================================================

// debounced is one timer firing. gen identifies the touch that armed it.
type debounced struct {
	path string
	gen  uint64
}

type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

// debouncer delays a path until it has been quiet for delay. Only the
// firing of the latest touch counts; a timer that fired before a newer
// touch is recognized by its generation and dropped by take.
// It is used from a single goroutine.
type debouncer struct {
	delay   time.Duration
	ready   chan debounced
	pending map[string]*pendingFile
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		ready:   make(chan debounced),
		pending: make(map[string]*pendingFile),
	}
}

// touch (re)arms the timer for path.
func (d *debouncer) touch(ctx context.Context, path string) {
	p, ok := d.pending[path]
	if ok {
		p.timer.Stop()
	} else {
		p = &pendingFile{}
		d.pending[path] = p
	}
	p.gen++
	fired := debounced{path: path, gen: p.gen}
	p.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- fired:
		case <-ctx.Done():
		}
	})
}

// take reports whether fired is the latest firing for its path and, if so,
// forgets the path.
func (d *debouncer) take(fired debounced) bool {
	p, ok := d.pending[fired.path]
	if !ok || p.gen != fired.gen {
		return false
	}
	delete(d.pending, fired.path)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

func (r *Runner) addWatch(w *fsnotify.Watcher, dir string, recursive bool) error {
	if !recursive {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// watchable reports whether ev should trigger a conversion: a create or
// write of a visible regular file matching patterns.
func watchable(ev fsnotify.Event, patterns []string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if isHidden(ev.Name) {
		return false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	name := strings.ToLower(filepath.Base(ev.Name))
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), name); ok {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
