// Package cli holds the entry point selection for the foreman binary:
// given parsed flags and resolved worker settings it picks exactly one of
// health-check, plain run, or watch mode, and hands the chosen behavior to
// the process fan-out launcher.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redqueue/foreman/pkg/worker"
	"github.com/redqueue/foreman/services/foreman/internal/supervise"
)

// Options is the parsed CLI intent.
type Options struct {
	// Burst is tri-state: nil leaves the settings value, non-nil overrides.
	Burst   *bool
	Check   bool
	Watch   string
	Workers int
}

// App wires the entry point selector to its collaborators. DefaultApp
// returns the production wiring; tests inject stubs.
type App struct {
	RunWorker   func(ctx context.Context, settings *worker.Settings, ov worker.Overrides) error
	CheckHealth func(ctx context.Context, settings *worker.Settings) int
	WatchReload func(ctx context.Context, path string, settings *worker.Settings) error
	Spawn       supervise.SpawnFunc
}

func DefaultApp() *App {
	return &App{
		RunWorker:   worker.RunSettings,
		CheckHealth: worker.CheckHealth,
		WatchReload: supervise.WatchReload,
		Spawn:       supervise.SelfSpawn(),
	}
}

// Run executes exactly one mode and returns the process exit code.
// Health-check mode short-circuits before any fan-out; no worker is
// constructed on that path.
func (a *App) Run(ctx context.Context, settings *worker.Settings, opts Options) (int, error) {
	if opts.Check {
		return a.CheckHealth(ctx, settings), nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	if opts.Watch != "" {
		info, err := os.Stat(opts.Watch)
		if err != nil {
			return 1, fmt.Errorf("watch path %s: %w", opts.Watch, err)
		}
		if !info.IsDir() {
			return 1, fmt.Errorf("watch path %s is not a directory", opts.Watch)
		}
		entry := func() error { return a.WatchReload(ctx, opts.Watch, settings) }
		if err := supervise.FanOut(workers, a.Spawn, entry); err != nil {
			return 1, err
		}
		return 0, nil
	}

	entry := func() error {
		return a.RunWorker(ctx, settings, worker.Overrides{Burst: opts.Burst})
	}
	if err := supervise.FanOut(workers, a.Spawn, entry); err != nil {
		return 1, err
	}
	return 0, nil
}
