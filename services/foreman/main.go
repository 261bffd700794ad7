package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/redqueue/foreman/pkg/config"
	helpers "github.com/redqueue/foreman/pkg/shared"
	"github.com/redqueue/foreman/services/foreman/internal/cli"
)

func main() {
	logger := helpers.NewLogger("foreman", "info")
	slog.SetDefault(logger)

	pflag.Bool("burst", false, "Batch mode: exit once no jobs are found in the queue")
	pflag.Bool("no-burst", false, "Disable batch mode even if the worker settings enable it")
	pflag.Bool("check", false, "Health check: run a health check and exit")
	pflag.String("watch", "", "Watch a directory and reload the worker upon changes")
	pflag.IntP("workers", "w", 1, "Number of worker processes to spawn")
	pflag.BoolP("verbose", "v", false, "Enable verbose output")
	pflag.String("custom-log-dict", "", "Locator for a settings file configuring foreman's own logging")
	pflag.String("override", "", "Override simple config values (string, int, bool) as comma-separated key:value pairs (e.g., worker.queue_name:critical,foreman.workers:4)")

	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <worker-settings locator>\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}

	config.BindFlags(map[string]string{
		"workers": "foreman.workers",
	})

	// Update the logger to use the configured log level
	level := "info"
	if verbose, _ := pflag.CommandLine.GetBool("verbose"); verbose {
		level = "debug"
	}
	if path, _ := pflag.CommandLine.GetString("custom-log-dict"); path != "" {
		lc, err := config.LoadLogConfig(path)
		if err != nil {
			slog.Error("failed to load log settings", "locator", path, "error", err)
			os.Exit(1)
		}
		if lc.Format == "text" {
			logger = helpers.NewTextLogger("foreman", lc.Level)
		} else {
			logger = helpers.NewLogger("foreman", lc.Level)
		}
	} else {
		logger = helpers.NewLogger("foreman", level)
	}
	slog.SetDefault(logger)

	locator := pflag.Arg(0)
	override, _ := pflag.CommandLine.GetString("override")
	settings, err := config.Resolve(locator, override)
	if err != nil {
		slog.Error("failed to resolve worker settings", "locator", locator, "error", err)
		os.Exit(1)
	}

	opts := cli.Options{
		Burst:   burstFlag(),
		Workers: config.Workers(),
	}
	opts.Check, _ = pflag.CommandLine.GetBool("check")
	opts.Watch, _ = pflag.CommandLine.GetString("watch")

	code, err := cli.DefaultApp().Run(context.Background(), settings, opts)
	if err != nil {
		slog.Error("foreman exited with error", "error", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// burstFlag folds --burst/--no-burst into a tri-state: nil when neither
// was given, so the settings file keeps the last word.
func burstFlag() *bool {
	if f := pflag.Lookup("burst"); f != nil && f.Changed {
		v := true
		return &v
	}
	if f := pflag.Lookup("no-burst"); f != nil && f.Changed {
		v := false
		return &v
	}
	return nil
}
