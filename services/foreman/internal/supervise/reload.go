// Package supervise is the process supervision and hot-reload core of
// foreman: the stop event, the signal demultiplexer, the process fan-out
// launcher, and the watch-reload controller that owns one worker handle
// and restarts it whenever watched files change.
package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redqueue/foreman/pkg/watch"
	"github.com/redqueue/foreman/pkg/worker"
)

// Handle is the contract the controller needs from a worker instance. It
// matches *worker.Worker; tests substitute fakes.
type Handle interface {
	Start(ctx context.Context) error
	HandleSignal(sig os.Signal)
	SetOnStop(fn func(os.Signal))
	Close() error
}

// WatchReload watches path and runs one worker under the reload loop until
// a termination signal sets the stop event. Exactly one worker handle is
// live at any time; each change batch replaces it with a fresh one.
func WatchReload(ctx context.Context, path string, settings *worker.Settings) error {
	stop := NewStopEvent()

	batches, err := watch.Subscribe(path, settings.WatchDebounce, stop.Done())
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	slog.Info("watching for changes", "path", path)

	factory := func() (Handle, error) { return worker.New(settings) }
	return runReloadLoop(ctx, factory, batches, stop)
}

// runReloadLoop drives the reload state machine. Change batches are
// processed strictly in order, one full stop-old/start-new cycle at a
// time; the loop exits when the batch channel closes, which happens once
// the stop event is set. Whatever handle is live when the loop ends is
// closed exactly once, on success and on every failure path.
func runReloadLoop(ctx context.Context, factory func() (Handle, error), batches <-chan watch.Batch, stop *StopEvent) (err error) {
	handle, err := factory()
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	defer func() {
		if handle == nil {
			return
		}
		if cerr := handle.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close worker: %w", cerr)
		}
	}()

	handle.SetOnStop(Demux(stop))
	if serr := handle.Start(ctx); serr != nil {
		return fmt.Errorf("start worker: %w", serr)
	}

	for batch := range batches {
		slog.Info("files changed, reloading worker", "changes", len(batch))

		// The reload signal stops the worker without tripping the stop
		// event; the demux hook passes it through untouched.
		handle.HandleSignal(ReloadSignal)
		if cerr := handle.Close(); cerr != nil {
			handle = nil
			return fmt.Errorf("close worker for reload: %w", cerr)
		}
		handle = nil

		next, ferr := factory()
		if ferr != nil {
			return fmt.Errorf("recreate worker: %w", ferr)
		}
		next.SetOnStop(Demux(stop))
		if serr := next.Start(ctx); serr != nil {
			handle = next
			return fmt.Errorf("restart worker: %w", serr)
		}
		handle = next
	}

	return nil
}
