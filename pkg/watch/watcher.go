// Package watch turns raw fsnotify events into debounced change batches.
// A subscription watches a directory tree recursively and emits one Batch
// per quiet period; the batch channel closes once the stop channel fires,
// which is how a consumer's receive loop terminates.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when the caller passes a non-positive debounce.
const DefaultDebounce = 300 * time.Millisecond

// Event is a single coalesced filesystem change.
type Event struct {
	Path string
	Op   string
}

// Batch is one debounced group of changes. Batches are always non-empty.
type Batch []Event

// Subscribe watches path recursively and returns a channel of debounced
// change batches. Batches are emitted in arrival order; the channel closes
// promptly after stop fires.
func Subscribe(path string, debounce time.Duration, stop <-chan struct{}) (<-chan Batch, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch path %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", path)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	if err := addRecursive(fw, path); err != nil {
		_ = fw.Close()
		return nil, err
	}

	batches := make(chan Batch, 1)
	go run(fw, debounce, stop, batches)
	return batches, nil
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch directory %s: %w", p, err)
		}
		return nil
	})
}

func run(fw *fsnotify.Watcher, debounce time.Duration, stop <-chan struct{}, batches chan<- Batch) {
	defer close(batches)
	defer func() {
		if err := fw.Close(); err != nil {
			slog.Error("Error closing filesystem watcher", "error", err)
		}
	}()

	pending := make(map[string]string)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-stop:
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			// Chmod-only events are noise (touch, permission churn).
			if ev.Op&^fsnotify.Chmod == 0 {
				continue
			}
			// New directories join the watch set so nested changes are seen.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						slog.Debug("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			pending[ev.Name] = ev.Op.String()
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("filesystem watcher error", "error", err)

		case <-fire:
			batch := make(Batch, 0, len(pending))
			for p, op := range pending {
				batch = append(batch, Event{Path: p, Op: op})
			}
			pending = make(map[string]string)
			fire = nil
			select {
			case batches <- batch:
			case <-stop:
				return
			}
		}
	}
}
