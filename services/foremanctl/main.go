package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/redqueue/foreman/pkg/config"
	helpers "github.com/redqueue/foreman/pkg/shared"
	"github.com/redqueue/foreman/pkg/worker"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  %[1]s [flags] <worker-settings locator> enqueue <function> [json-args]
  %[1]s [flags] <worker-settings locator> result <job-id>
`, os.Args[0])
	pflag.PrintDefaults()
	os.Exit(2)
}

func main() {
	logger := helpers.NewLogger("foremanctl", "info")
	slog.SetDefault(logger)

	pflag.BoolP("verbose", "v", false, "Enable verbose output")
	pflag.String("override", "", "Override simple config values (string, int, bool) as comma-separated key:value pairs (e.g., worker.queue_name:critical)")
	pflag.Parse()

	if verbose, _ := pflag.CommandLine.GetBool("verbose"); verbose {
		slog.SetDefault(helpers.NewLogger("foremanctl", "debug"))
	}

	if pflag.NArg() < 2 {
		usage()
	}

	override, _ := pflag.CommandLine.GetString("override")
	settings, err := config.Resolve(pflag.Arg(0), override)
	if err != nil {
		slog.Error("failed to resolve worker settings", "locator", pflag.Arg(0), "error", err)
		os.Exit(1)
	}

	client := worker.NewClient(settings)
	defer helpers.CloseOrLog(client)

	ctx := context.Background()
	switch cmd := pflag.Arg(1); cmd {
	case "enqueue":
		if pflag.NArg() < 3 {
			usage()
		}
		var args any
		if pflag.NArg() > 3 {
			if err := json.Unmarshal([]byte(pflag.Arg(3)), &args); err != nil {
				slog.Error("job args are not valid JSON", "error", err)
				os.Exit(1)
			}
		}
		job, err := client.Enqueue(ctx, pflag.Arg(2), args)
		if err != nil {
			slog.Error("failed to enqueue job", "function", pflag.Arg(2), "error", err)
			os.Exit(1)
		}
		fmt.Println(job.ID)

	case "result":
		if pflag.NArg() < 3 {
			usage()
		}
		result, err := client.Result(ctx, pflag.Arg(2))
		if errors.Is(err, worker.ErrNoResult) {
			slog.Info("no result yet", "job_id", pflag.Arg(2))
			os.Exit(3)
		}
		if err != nil {
			slog.Error("failed to fetch job result", "job_id", pflag.Arg(2), "error", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			slog.Error("failed to render job result", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(out))

	default:
		slog.Error("unknown command", "command", cmd)
		usage()
	}
}
